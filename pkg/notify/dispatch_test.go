package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/communityforge/notify/pkg/config"
	"github.com/communityforge/notify/pkg/mail"
)

type fakeTransport struct {
	verifyErr error
	sendErr   error
	reject    []string

	verifyCalls int
	sendCalls   int
	closeCalls  int
	lastMessage *mail.Message
}

func (f *fakeTransport) Verify(ctx context.Context) error {
	f.verifyCalls++
	return f.verifyErr
}

func (f *fakeTransport) Send(ctx context.Context, m *mail.Message) (*mail.Receipt, error) {
	f.sendCalls++
	f.lastMessage = m
	if f.sendErr != nil {
		return &mail.Receipt{Rejected: m.Recipients()}, f.sendErr
	}
	receipt := &mail.Receipt{MessageID: "<test-id@relay>"}
	for _, rcpt := range m.Recipients() {
		if f.rejects(rcpt) {
			receipt.Rejected = append(receipt.Rejected, rcpt)
			continue
		}
		receipt.Accepted = append(receipt.Accepted, rcpt)
	}
	return receipt, nil
}

func (f *fakeTransport) rejects(rcpt string) bool {
	for _, r := range f.reject {
		if r == rcpt {
			return true
		}
	}
	return false
}

func (f *fakeTransport) Close() error {
	f.closeCalls++
	return nil
}

type fakeProvider struct {
	transport *fakeTransport
	openCalls int
	lastMP    *config.MailProvider
}

func (f *fakeProvider) Open(mp *config.MailProvider) Transport {
	f.openCalls++
	f.lastMP = mp
	return f.transport
}

func testExecutor(provider *fakeProvider, adminEmail string) *Executor {
	e := NewExecutor(provider, testRenderer(), zap.NewNop().Sugar(), adminEmail, "Forge")
	e.resolve = func(scheme config.Scheme) (*config.MailProvider, error) {
		return &config.MailProvider{
			Scheme:        scheme,
			Host:          "smtp.example.org",
			Port:          587,
			SenderAddress: "noreply@example.org",
		}, nil
	}
	e.now = func() time.Time { return renderTime }
	return e
}

func TestDispatch_Success(t *testing.T) {
	transport := &fakeTransport{}
	provider := &fakeProvider{transport: transport}
	e := testExecutor(provider, "")

	result := e.Dispatch(context.Background(), Request{
		Kind: KindApplicationApproved,
		Payload: Payload{
			"applicationData": map[string]any{"applicantEmail": "ada@example.org"},
		},
	})

	require.True(t, result.Success)
	assert.Equal(t, "Application approval email sent", result.Message)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "applicant", result.Results[0].Type)
	assert.Equal(t, "ada@example.org", result.Results[0].Recipient)
	assert.Equal(t, "<test-id@relay>", result.Results[0].MessageID)

	assert.Equal(t, 1, provider.openCalls)
	assert.Equal(t, 1, transport.verifyCalls)
	assert.Equal(t, 1, transport.sendCalls)
	assert.Equal(t, 1, transport.closeCalls, "transport is closed exactly once")

	assert.Equal(t, "<test-id@relay>", result.MessageID)
	assert.Equal(t, []string{"ada@example.org"}, result.AcceptedRecipients)
	assert.Empty(t, result.RejectedRecipients)

	assert.Equal(t, config.SchemeHostedMailbox, provider.lastMP.Scheme)
	assert.Equal(t, "noreply@example.org", transport.lastMessage.From)
	assert.Equal(t, "noreply@example.org", transport.lastMessage.ReplyTo, "replyTo defaults to the sender address")
	assert.Equal(t, "Your application to join Project was approved", transport.lastMessage.Subject)
}

func TestDispatch_ValidationFailure_OpensNoTransport(t *testing.T) {
	provider := &fakeProvider{transport: &fakeTransport{}}
	e := testExecutor(provider, "")

	result := e.Dispatch(context.Background(), Request{
		Kind:    KindApplicationApproved,
		Payload: Payload{},
	})

	require.False(t, result.Success)
	assert.Equal(t, ErrorKindValidation, result.ErrorKind)
	assert.Equal(t, "Missing required fields: applicationData.applicantEmail", result.ErrorMessage)
	assert.Zero(t, provider.openCalls, "validation failures never open a transport")
}

func TestDispatch_ValidationCollectsAllMissingFields(t *testing.T) {
	provider := &fakeProvider{transport: &fakeTransport{}}
	e := testExecutor(provider, "")

	result := e.Dispatch(context.Background(), Request{
		Kind:    KindEventPublished,
		Payload: Payload{},
	})

	require.False(t, result.Success)
	assert.Equal(t, "Missing required fields: eventData.organizerEmail, eventData.title", result.ErrorMessage)
}

func TestDispatch_UnknownKind(t *testing.T) {
	provider := &fakeProvider{transport: &fakeTransport{}}
	e := testExecutor(provider, "")

	result := e.Dispatch(context.Background(), Request{Kind: Kind("smoke_signal")})

	require.False(t, result.Success)
	assert.Equal(t, ErrorKindValidation, result.ErrorKind)
	assert.Contains(t, result.ErrorMessage, "smoke_signal")
}

func TestDispatch_ConfigurationFailure(t *testing.T) {
	provider := &fakeProvider{transport: &fakeTransport{}}
	e := testExecutor(provider, "")
	e.resolve = func(scheme config.Scheme) (*config.MailProvider, error) {
		return nil, &config.MissingEnvError{Keys: []string{"HOSTED_MAILBOX_USER", "HOSTED_MAILBOX_PASSWORD"}}
	}

	result := e.Dispatch(context.Background(), Request{
		Kind: KindApplicationApproved,
		Payload: Payload{
			"applicationData": map[string]any{"applicantEmail": "ada@example.org"},
		},
	})

	require.False(t, result.Success)
	assert.Equal(t, ErrorKindConfiguration, result.ErrorKind)
	assert.Equal(t, "Missing environment variables: HOSTED_MAILBOX_USER, HOSTED_MAILBOX_PASSWORD", result.ErrorMessage)
	assert.Zero(t, provider.openCalls)
}

func TestDispatch_TransportFailure_ClosesOnce(t *testing.T) {
	transport := &fakeTransport{verifyErr: errors.New("connection refused")}
	provider := &fakeProvider{transport: transport}
	e := testExecutor(provider, "")

	result := e.Dispatch(context.Background(), Request{
		Kind: KindApplicationApproved,
		Payload: Payload{
			"applicationData": map[string]any{"applicantEmail": "ada@example.org"},
		},
	})

	require.False(t, result.Success)
	assert.Equal(t, ErrorKindTransport, result.ErrorKind)
	assert.Zero(t, transport.sendCalls, "nothing is rendered or sent after a failed verify")
	assert.Equal(t, 1, transport.closeCalls)
}

func TestDispatch_DeliveryFailure_ClosesOnce(t *testing.T) {
	transport := &fakeTransport{sendErr: errors.New("550 mailbox unavailable")}
	provider := &fakeProvider{transport: transport}
	e := testExecutor(provider, "")

	result := e.Dispatch(context.Background(), Request{
		Kind: KindApplicationApproved,
		Payload: Payload{
			"applicationData": map[string]any{"applicantEmail": "ada@example.org"},
		},
	})

	require.False(t, result.Success)
	assert.Equal(t, ErrorKindDelivery, result.ErrorKind)
	assert.Equal(t, 1, transport.closeCalls)
}

func TestDispatch_RecipientOverrides(t *testing.T) {
	transport := &fakeTransport{}
	provider := &fakeProvider{transport: transport}
	e := testExecutor(provider, "")

	result := e.Dispatch(context.Background(), Request{
		Kind: KindApplicationApproved,
		Payload: Payload{
			"applicationData": map[string]any{"applicantEmail": "ada@example.org"},
			"recipientOverrides": map[string]any{
				"to":      "override@example.org",
				"cc":      []any{"watcher@example.org"},
				"replyTo": "support@example.org",
			},
		},
	})

	require.True(t, result.Success)
	assert.Equal(t, []string{"override@example.org"}, transport.lastMessage.To)
	assert.Equal(t, []string{"watcher@example.org"}, transport.lastMessage.Cc)
	assert.Equal(t, "support@example.org", transport.lastMessage.ReplyTo)

	require.Len(t, result.Results, 2)
	assert.Equal(t, "applicant", result.Results[0].Type)
	assert.Equal(t, "override@example.org", result.Results[0].Recipient)
	assert.Equal(t, "cc", result.Results[1].Type)
	assert.Equal(t, "watcher@example.org", result.Results[1].Recipient)
}

func TestDispatch_PartialCcRejectionStillSucceeds(t *testing.T) {
	transport := &fakeTransport{reject: []string{"bad-cc@example.org"}}
	provider := &fakeProvider{transport: transport}
	e := testExecutor(provider, "")

	result := e.Dispatch(context.Background(), Request{
		Kind: KindApplicationApproved,
		Payload: Payload{
			"applicationData": map[string]any{"applicantEmail": "ada@example.org"},
			"recipientOverrides": map[string]any{
				"cc": []any{"bad-cc@example.org"},
			},
		},
	})

	require.True(t, result.Success, "a rejected cc recipient does not fail the dispatch")
	assert.Equal(t, []string{"ada@example.org"}, result.AcceptedRecipients)
	assert.Equal(t, []string{"bad-cc@example.org"}, result.RejectedRecipients,
		"rejected recipients are reported to the caller")
	require.Len(t, result.Results, 1, "only delivered recipients carry a message id entry")
	assert.Equal(t, "ada@example.org", result.Results[0].Recipient)
	assert.Equal(t, 1, transport.closeCalls)
}

func TestDispatch_AdminFallbackRecipient(t *testing.T) {
	transport := &fakeTransport{}
	provider := &fakeProvider{transport: transport}
	e := testExecutor(provider, "admin@example.org")

	result := e.Dispatch(context.Background(), Request{
		Kind: KindProjectSubmittedAdmin,
		Payload: Payload{
			"projectData": map[string]any{"title": "Solar Kiln"},
		},
	})

	require.True(t, result.Success)
	assert.Equal(t, []string{"admin@example.org"}, transport.lastMessage.To)
	assert.Equal(t, config.SchemeGenericSMTP, provider.lastMP.Scheme)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "admin", result.Results[0].Type)
}

func TestDispatch_AdminFallbackUnconfigured(t *testing.T) {
	provider := &fakeProvider{transport: &fakeTransport{}}
	e := testExecutor(provider, "")

	result := e.Dispatch(context.Background(), Request{
		Kind: KindProjectSubmittedAdmin,
		Payload: Payload{
			"projectData": map[string]any{"title": "Solar Kiln"},
		},
	})

	require.False(t, result.Success)
	assert.Equal(t, ErrorKindConfiguration, result.ErrorKind)
	assert.Zero(t, provider.openCalls)
}

func TestDispatch_PayloadRecipientBeatsAdminFallback(t *testing.T) {
	transport := &fakeTransport{}
	provider := &fakeProvider{transport: transport}
	e := testExecutor(provider, "admin@example.org")

	result := e.Dispatch(context.Background(), Request{
		Kind: KindProjectSubmittedAdmin,
		Payload: Payload{
			"projectData": map[string]any{"title": "Solar Kiln"},
			"adminData":   map[string]any{"email": "board@example.org"},
		},
	})

	require.True(t, result.Success)
	assert.Equal(t, []string{"board@example.org"}, transport.lastMessage.To)
}
