package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/communityforge/notify/pkg/config"
	"github.com/communityforge/notify/pkg/metrics"
)

// Message is a fully-formed mail message ready for transmission.
type Message struct {
	From     string
	FromName string
	To       []string
	Cc       []string
	ReplyTo  string
	Subject  string
	Text     string
	HTML     string
}

// Recipients returns the full envelope recipient list: To followed by Cc.
func (m *Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	return out
}

// Receipt confirms a send attempt. MessageID is minted client-side and set as
// the RFC 5322 Message-ID header; bare SMTP relays assign no id of their own.
type Receipt struct {
	MessageID string
	Accepted  []string
	Rejected  []string
}

// Transport is a short-lived SMTP channel: opened without I/O, verified with a
// handshake, used for one send and then closed. Verify and Send are bounded by
// the timeouts carried on the Provider that opened the transport.
type Transport struct {
	dialer        *gomail.Dialer
	provider      *config.MailProvider
	log           *zap.SugaredLogger
	verifyTimeout time.Duration
	sendTimeout   time.Duration

	conn gomail.SendCloser
}

// Provider opens transports from resolved mail provider configuration.
type Provider struct {
	Log           *zap.SugaredLogger
	VerifyTimeout time.Duration
	SendTimeout   time.Duration
}

// NewProvider creates a transport provider with the given timeouts.
func NewProvider(log *zap.SugaredLogger, verifyTimeout, sendTimeout time.Duration) *Provider {
	if verifyTimeout <= 0 {
		verifyTimeout = 10 * time.Second
	}
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}
	return &Provider{Log: log, VerifyTimeout: verifyTimeout, SendTimeout: sendTimeout}
}

// Open constructs the connection descriptor for the given provider config.
// No network I/O happens until Verify or Send.
func (p *Provider) Open(mp *config.MailProvider) *Transport {
	d := gomail.NewDialer(mp.Host, mp.Port, mp.Username, mp.Password)
	d.SSL = mp.SSL
	d.TLSConfig = &tls.Config{ServerName: mp.Host}

	log := p.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Transport{
		dialer:        d,
		provider:      mp,
		log:           log,
		verifyTimeout: p.VerifyTimeout,
		sendTimeout:   p.SendTimeout,
	}
}

// Host returns the relay host this transport connects to.
func (t *Transport) Host() string {
	return t.dialer.Host
}

// Verify performs the SMTP dial and authentication handshake, confirming the
// relay is reachable and the credentials are accepted before any message is
// rendered or sent. The established connection is kept for the send.
func (t *Transport) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.verifyTimeout)
	defer cancel()

	if err := t.resetSession(ctx); err != nil {
		metrics.MailVerifyFailure.WithLabelValues(t.Host()).Inc()
		return fmt.Errorf("smtp handshake with %s:%d failed: %w", t.dialer.Host, t.dialer.Port, err)
	}
	return nil
}

// resetSession discards any existing connection and dials a fresh one, bounded
// by the deadline already on ctx.
func (t *Transport) resetSession(ctx context.Context) error {
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}

	type dialResult struct {
		conn gomail.SendCloser
		err  error
	}
	ch := make(chan dialResult, 1)
	go func() {
		conn, err := t.dialer.Dial()
		ch <- dialResult{conn: conn, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return res.err
		}
		t.conn = res.conn
		return nil
	case <-ctx.Done():
		// A late successful dial must not leak its connection.
		go func() {
			if res := <-ch; res.err == nil && res.conn != nil {
				_ = res.conn.Close()
			}
		}()
		return ctx.Err()
	}
}

// Send transmits the message, delivering to each recipient in its own SMTP
// transaction so the receipt can report accepted and rejected addresses
// independently. An error is returned only when no recipient accepted the
// message or the primary recipient was rejected.
func (t *Transport) Send(ctx context.Context, m *Message) (*Receipt, error) {
	if len(m.To) == 0 {
		return nil, fmt.Errorf("cannot send message with no recipients")
	}
	if t.conn == nil {
		if err := t.Verify(ctx); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, t.sendTimeout)
	defer cancel()

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), t.dialer.Host)
	gm := t.buildMessage(m, messageID)

	receipt := &Receipt{MessageID: messageID}
	recipients := m.Recipients()
	var lastErr error
	for i, rcpt := range recipients {
		if err := ctx.Err(); err != nil {
			receipt.Rejected = append(receipt.Rejected, rcpt)
			lastErr = err
			continue
		}
		if err := t.deliver(ctx, gm, m.From, rcpt); err != nil {
			t.log.Warnw("Recipient rejected by relay", "host", t.Host(), "recipient", rcpt, "error", err)
			receipt.Rejected = append(receipt.Rejected, rcpt)
			lastErr = err
			// A failed RCPT leaves the SMTP transaction open; strict relays
			// answer the next MAIL FROM with 503. Start a clean session for
			// the remaining recipients.
			if i < len(recipients)-1 {
				if rerr := t.resetSession(ctx); rerr != nil {
					receipt.Rejected = append(receipt.Rejected, recipients[i+1:]...)
					lastErr = rerr
					break
				}
			}
			continue
		}
		receipt.Accepted = append(receipt.Accepted, rcpt)
	}

	primaryRejected := len(receipt.Accepted) == 0 || !contains(receipt.Accepted, m.To[0])
	if primaryRejected {
		metrics.MailSendFailure.WithLabelValues(t.Host()).Inc()
		return receipt, fmt.Errorf("delivery to %s failed: %w", m.To[0], lastErr)
	}

	metrics.MailSendSuccess.WithLabelValues(t.Host()).Inc()
	t.log.Infow("Mail sent",
		"host", t.Host(),
		"messageID", messageID,
		"accepted", len(receipt.Accepted),
		"rejected", len(receipt.Rejected))
	return receipt, nil
}

// deliver runs one SMTP transaction for a single envelope recipient, bounded
// by the send deadline already on ctx.
func (t *Transport) deliver(ctx context.Context, gm *gomail.Message, from, rcpt string) error {
	ch := make(chan error, 1)
	go func() {
		ch <- t.conn.Send(from, []string{rcpt}, gm)
	}()
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return fmt.Errorf("send to %s timed out: %w", rcpt, ctx.Err())
	}
}

func (t *Transport) buildMessage(m *Message, messageID string) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.From, m.FromName)
	gm.SetHeader("To", m.To...)
	if len(m.Cc) > 0 {
		gm.SetHeader("Cc", m.Cc...)
	}
	if m.ReplyTo != "" {
		gm.SetHeader("Reply-To", m.ReplyTo)
	}
	gm.SetHeader("Message-ID", messageID)
	gm.SetHeader("Subject", m.Subject)
	gm.SetBody("text/plain", m.Text)
	gm.AddAlternative("text/html", m.HTML)
	return gm
}

// Close releases the underlying SMTP connection. It is safe to call on every
// path, including after a failed or never-attempted Verify.
func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	conn := t.conn
	t.conn = nil
	return conn.Close()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
