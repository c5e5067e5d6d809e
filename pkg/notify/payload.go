package notify

import (
	"fmt"
	"strings"
)

// Payload is the request data bag: nested JSON objects keyed by field name.
// Values are looked up by dotted path, e.g. "applicationData.applicantEmail".
type Payload map[string]any

// String returns the value at the given dotted path rendered as a string, or
// "" when the path is absent, empty, or traverses a non-object.
func (p Payload) String(path string) string {
	var current any = map[string]any(p)
	for _, segment := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = obj[segment]
		if !ok {
			return ""
		}
	}
	switch v := current.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// RecipientOverrides are explicit to/cc/replyTo addresses supplied by the
// caller; when present they take precedence over payload-derived recipients.
type RecipientOverrides struct {
	To      []string
	Cc      []string
	ReplyTo string
}

// Overrides extracts the optional recipientOverrides object from the payload.
// Returns nil when the caller supplied none.
func (p Payload) Overrides() *RecipientOverrides {
	raw, ok := p["recipientOverrides"].(map[string]any)
	if !ok {
		return nil
	}
	o := &RecipientOverrides{
		To: stringList(raw["to"]),
		Cc: stringList(raw["cc"]),
	}
	if s, ok := raw["replyTo"].(string); ok {
		o.ReplyTo = strings.TrimSpace(s)
	}
	if len(o.To) == 0 && len(o.Cc) == 0 && o.ReplyTo == "" {
		return nil
	}
	return o
}

// stringList accepts either a single string or a JSON array of strings.
func stringList(v any) []string {
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}
