package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Scheme identifies the credential family used to construct a mail transport.
type Scheme string

const (
	// SchemeHostedMailbox is the hosted-mailbox credential scheme: a well-known
	// mail service plus a user/password pair.
	SchemeHostedMailbox Scheme = "hosted-mailbox"
	// SchemeGenericSMTP is the generic SMTP scheme: explicit host/port/secure
	// flag plus a user/password pair.
	SchemeGenericSMTP Scheme = "generic-smtp"
)

// MailProvider represents resolved runtime mail transport configuration.
type MailProvider struct {
	Scheme Scheme

	// SMTP connection
	Host string
	Port int
	SSL  bool

	// Credentials
	Username string
	Password string

	// Sender configuration
	SenderAddress string
	SenderName    string
}

// MissingEnvError reports every required environment key absent for a scheme,
// so a deployment can be fixed in one pass instead of one key at a time.
type MissingEnvError struct {
	Keys []string
}

func (e *MissingEnvError) Error() string {
	return "Missing environment variables: " + strings.Join(e.Keys, ", ")
}

// hostedService describes the fixed relay endpoint of a hosted mailbox service.
type hostedService struct {
	Host string
	Port int
	SSL  bool
}

// hostedServices maps HOSTED_MAILBOX_SERVICE values to their relay endpoints.
var hostedServices = map[string]hostedService{
	"gmail":      {Host: "smtp.gmail.com", Port: 465, SSL: true},
	"outlook365": {Host: "smtp.office365.com", Port: 587},
	"zoho":       {Host: "smtp.zoho.com", Port: 465, SSL: true},
	"yahoo":      {Host: "smtp.mail.yahoo.com", Port: 465, SSL: true},
}

// defaultHostedService is used when HOSTED_MAILBOX_SERVICE is unset.
const defaultHostedService = "gmail"

// Environment keys per scheme. Absence of any required key is a configuration
// error, never a silent default.
var (
	hostedMailboxKeys = []string{"HOSTED_MAILBOX_USER", "HOSTED_MAILBOX_PASSWORD"}
	genericSMTPKeys   = []string{"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "FROM_EMAIL"}
)

// ResolveMailProvider reads the required environment keys for the given scheme
// and returns the resolved transport configuration. All missing keys are
// collected into a single MissingEnvError rather than failing on the first.
func ResolveMailProvider(scheme Scheme) (*MailProvider, error) {
	switch scheme {
	case SchemeHostedMailbox:
		return resolveHostedMailbox()
	case SchemeGenericSMTP:
		return resolveGenericSMTP()
	default:
		return nil, fmt.Errorf("unknown mail transport scheme %q", scheme)
	}
}

func resolveHostedMailbox() (*MailProvider, error) {
	if missing := missingKeys(hostedMailboxKeys); len(missing) > 0 {
		return nil, &MissingEnvError{Keys: missing}
	}

	serviceName := os.Getenv("HOSTED_MAILBOX_SERVICE")
	if serviceName == "" {
		serviceName = defaultHostedService
	}
	service, ok := hostedServices[serviceName]
	if !ok {
		return nil, fmt.Errorf("unknown hosted mailbox service %q", serviceName)
	}

	user := os.Getenv("HOSTED_MAILBOX_USER")
	return &MailProvider{
		Scheme:        SchemeHostedMailbox,
		Host:          service.Host,
		Port:          service.Port,
		SSL:           service.SSL,
		Username:      user,
		Password:      os.Getenv("HOSTED_MAILBOX_PASSWORD"),
		SenderAddress: user,
	}, nil
}

func resolveGenericSMTP() (*MailProvider, error) {
	if missing := missingKeys(genericSMTPKeys); len(missing) > 0 {
		return nil, &MissingEnvError{Keys: missing}
	}

	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT %q: %v", os.Getenv("SMTP_PORT"), err)
	}

	secure := false
	if v := os.Getenv("SMTP_SECURE"); v != "" {
		secure, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_SECURE %q: %v", v, err)
		}
	} else {
		secure = port == 465
	}

	return &MailProvider{
		Scheme:        SchemeGenericSMTP,
		Host:          os.Getenv("SMTP_HOST"),
		Port:          port,
		SSL:           secure,
		Username:      os.Getenv("SMTP_USER"),
		Password:      os.Getenv("SMTP_PASS"),
		SenderAddress: os.Getenv("FROM_EMAIL"),
	}, nil
}

func missingKeys(keys []string) []string {
	var missing []string
	for _, key := range keys {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
