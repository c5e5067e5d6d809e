package notify

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies every failure leaving the dispatch executor. No raw
// transport or template error crosses the pipeline boundary unclassified.
type ErrorKind string

const (
	// ErrorKindValidation: the caller supplied an incomplete or malformed
	// request. Recoverable by the caller, never retried here.
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindConfiguration: deployment misconfiguration (missing environment
	// keys). Requires operator action, never retried automatically.
	ErrorKindConfiguration ErrorKind = "configuration"
	// ErrorKindTransport: relay unreachable or credentials rejected during the
	// verify handshake. Not a transient send error; not safe to blind-retry.
	ErrorKindTransport ErrorKind = "transport"
	// ErrorKindRender: template/field mismatch. Should never occur for
	// validated input; treated as a bug report.
	ErrorKindRender ErrorKind = "render"
	// ErrorKindDelivery: the relay accepted the connection but rejected or
	// failed to deliver the message. The only kind a caller may reasonably retry.
	ErrorKindDelivery ErrorKind = "delivery"
)

// HTTPStatus maps an error kind to the status code reported to callers.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ErrorKindValidation:
		return http.StatusBadRequest
	case ErrorKindDelivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// DispatchError is a classified pipeline failure.
type DispatchError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func newValidationError(format string, args ...any) *DispatchError {
	return &DispatchError{Kind: ErrorKindValidation, Message: fmt.Sprintf(format, args...)}
}

func newConfigurationError(err error) *DispatchError {
	return &DispatchError{Kind: ErrorKindConfiguration, Message: err.Error(), Err: err}
}

func newTransportError(err error) *DispatchError {
	return &DispatchError{Kind: ErrorKindTransport, Message: "mail relay unavailable", Err: err}
}

func newRenderError(err error) *DispatchError {
	return &DispatchError{Kind: ErrorKindRender, Message: "failed to render notification content", Err: err}
}

func newDeliveryError(err error) *DispatchError {
	return &DispatchError{Kind: ErrorKindDelivery, Message: "mail relay rejected the message", Err: err}
}
