package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/communityforge/notify/pkg/config"
	"github.com/communityforge/notify/pkg/mail"
	"github.com/communityforge/notify/pkg/metrics"
)

// Transport is the mail channel used for a single dispatch: verified once,
// used for one send, closed exactly once on every terminal path.
type Transport interface {
	Verify(ctx context.Context) error
	Send(ctx context.Context, m *mail.Message) (*mail.Receipt, error)
	Close() error
}

// TransportProvider opens transports from resolved provider configuration.
// Opening performs no network I/O.
type TransportProvider interface {
	Open(mp *config.MailProvider) Transport
}

type smtpProvider struct {
	provider *mail.Provider
}

func (s smtpProvider) Open(mp *config.MailProvider) Transport {
	return s.provider.Open(mp)
}

// NewSMTPProvider wraps the SMTP mail provider as a TransportProvider.
func NewSMTPProvider(p *mail.Provider) TransportProvider {
	return smtpProvider{provider: p}
}

// Request is a single dispatch request: the notification kind plus the
// caller-supplied payload.
type Request struct {
	Kind    Kind
	Payload Payload
}

// Executor runs the dispatch pipeline: validate, resolve configuration, open
// and verify the transport, render, send, close. Each stage failure is
// classified before it leaves the executor.
type Executor struct {
	provider   TransportProvider
	renderer   *Renderer
	log        *zap.SugaredLogger
	adminEmail string
	senderName string

	resolve func(config.Scheme) (*config.MailProvider, error)
	now     func() time.Time
}

// NewExecutor creates a dispatch executor. adminEmail is the deployment-level
// fallback recipient for admin notification kinds; senderName is the display
// name set on the From header.
func NewExecutor(provider TransportProvider, renderer *Renderer, log *zap.SugaredLogger, adminEmail, senderName string) *Executor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Executor{
		provider:   provider,
		renderer:   renderer,
		log:        log,
		adminEmail: adminEmail,
		senderName: senderName,
		resolve:    config.ResolveMailProvider,
		now:        time.Now,
	}
}

// Dispatch runs the full pipeline for one request. It never returns a nil
// result; failures are reported through the result's error fields.
func (e *Executor) Dispatch(ctx context.Context, req Request) *Result {
	result, derr := e.dispatch(ctx, req)
	if derr != nil {
		e.log.Errorw("Notification dispatch failed",
			"kind", req.Kind,
			"errorKind", derr.Kind,
			"error", derr.Error())
		metrics.DispatchFailed.WithLabelValues(string(req.Kind), string(derr.Kind)).Inc()
		return failureResult(derr)
	}
	metrics.DispatchSucceeded.WithLabelValues(string(req.Kind)).Inc()
	return result
}

func (e *Executor) dispatch(ctx context.Context, req Request) (*Result, *DispatchError) {
	def, ok := Lookup(req.Kind)
	if !ok {
		return nil, newValidationError("Unknown notification type: %s", req.Kind)
	}

	if missing := e.missingFields(def, req.Payload); len(missing) > 0 {
		return nil, newValidationError("Missing required fields: %s", strings.Join(missing, ", "))
	}

	to, cc, replyTo, derr := e.resolveRecipients(def, req.Payload)
	if derr != nil {
		return nil, derr
	}

	mp, err := e.resolve(def.Scheme)
	if err != nil {
		return nil, newConfigurationError(err)
	}

	transport := e.provider.Open(mp)
	defer func() {
		if err := transport.Close(); err != nil {
			e.log.Warnw("Closing mail transport failed", "kind", req.Kind, "error", err)
		}
	}()

	if err := transport.Verify(ctx); err != nil {
		return nil, newTransportError(err)
	}

	content, err := e.renderer.Render(req.Kind, req.Payload, e.now())
	if err != nil {
		return nil, newRenderError(err)
	}

	if replyTo == "" {
		replyTo = mp.SenderAddress
	}
	msg := &mail.Message{
		From:     mp.SenderAddress,
		FromName: e.senderName,
		To:       to,
		Cc:       cc,
		ReplyTo:  replyTo,
		Subject:  content.Subject,
		Text:     content.Text,
		HTML:     content.HTML,
	}

	receipt, err := transport.Send(ctx, msg)
	if err != nil {
		return nil, newDeliveryError(err)
	}

	e.log.Infow("Notification dispatched",
		"kind", req.Kind,
		"messageID", receipt.MessageID,
		"accepted", len(receipt.Accepted),
		"rejected", len(receipt.Rejected))

	return &Result{
		Success:            true,
		Message:            def.Message,
		MessageID:          receipt.MessageID,
		AcceptedRecipients: receipt.Accepted,
		RejectedRecipients: receipt.Rejected,
		Results:            recipientResults(def, msg, receipt),
	}, nil
}

// missingFields returns the required payload paths absent from the request,
// all of them, so the caller can repair the request in one pass.
func (e *Executor) missingFields(def Definition, payload Payload) []string {
	var missing []string
	for _, path := range def.requiredPaths() {
		if payload.String(path) == "" {
			missing = append(missing, path)
		}
	}
	return missing
}

// resolveRecipients determines the envelope recipients. Caller-supplied
// overrides win; otherwise the primary address comes from the kind's payload
// path, with admin kinds falling back to the configured admin mailbox.
func (e *Executor) resolveRecipients(def Definition, payload Payload) (to, cc []string, replyTo string, derr *DispatchError) {
	if o := payload.Overrides(); o != nil {
		cc = o.Cc
		replyTo = o.ReplyTo
		if len(o.To) > 0 {
			return o.To, cc, replyTo, nil
		}
	}

	primary := payload.String(def.RecipientPath)
	if primary == "" && def.AdminFallback {
		primary = e.adminEmail
		if primary == "" {
			return nil, nil, "", newConfigurationError(
				fmt.Errorf("no admin recipient: payload has no %s and no admin email is configured", def.RecipientPath))
		}
	}
	if primary == "" {
		return nil, nil, "", newValidationError("Missing required fields: %s", def.RecipientPath)
	}
	return []string{primary}, cc, replyTo, nil
}

// recipientResults maps the send receipt onto per-recipient result entries.
// Only accepted recipients appear; cc entries are typed "cc".
func recipientResults(def Definition, msg *mail.Message, receipt *mail.Receipt) []RecipientResult {
	accepted := make(map[string]bool, len(receipt.Accepted))
	for _, addr := range receipt.Accepted {
		accepted[addr] = true
	}

	var out []RecipientResult
	for _, addr := range msg.To {
		if accepted[addr] {
			out = append(out, RecipientResult{Type: def.RecipientType, Recipient: addr, MessageID: receipt.MessageID})
		}
	}
	for _, addr := range msg.Cc {
		if accepted[addr] {
			out = append(out, RecipientResult{Type: "cc", Recipient: addr, MessageID: receipt.MessageID})
		}
	}
	return out
}
