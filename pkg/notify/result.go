package notify

// RecipientResult describes one delivered recipient in a dispatch result.
type RecipientResult struct {
	Type      string `json:"type"`
	Recipient string `json:"recipient"`
	MessageID string `json:"messageId"`
}

// Result is the structured outcome of a dispatch. Success and failure share
// the same shape; on failure ErrorKind and ErrorMessage are populated and the
// recipient fields are empty. A successful dispatch still reports rejected
// secondary recipients, so partial delivery is visible to the caller.
type Result struct {
	Success            bool              `json:"success"`
	Message            string            `json:"message,omitempty"`
	MessageID          string            `json:"messageId,omitempty"`
	AcceptedRecipients []string          `json:"acceptedRecipients,omitempty"`
	RejectedRecipients []string          `json:"rejectedRecipients,omitempty"`
	Results            []RecipientResult `json:"results,omitempty"`
	ErrorKind          ErrorKind         `json:"-"`
	ErrorMessage       string            `json:"error,omitempty"`
}

// failureResult builds the uniform failure shape from a classified error.
func failureResult(err *DispatchError) *Result {
	return &Result{
		Success:      false,
		ErrorKind:    err.Kind,
		ErrorMessage: err.Message,
	}
}
