package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload_String(t *testing.T) {
	payload := Payload{
		"projectData": map[string]any{
			"title":  "  Solar Kiln  ",
			"budget": 1200,
			"tags":   []any{"solar"},
			"owner":  map[string]any{"name": "Sam"},
			"notes":  nil,
		},
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"trims string values", "projectData.title", "Solar Kiln"},
		{"nested path", "projectData.owner.name", "Sam"},
		{"numeric scalar", "projectData.budget", "1200"},
		{"absent path", "projectData.deadline", ""},
		{"absent root", "eventData.title", ""},
		{"array is not a string", "projectData.tags", ""},
		{"object is not a string", "projectData.owner", ""},
		{"null value", "projectData.notes", ""},
		{"traversal through a scalar", "projectData.title.length", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, payload.String(tt.path))
		})
	}
}

func TestPayload_Overrides(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		assert.Nil(t, Payload{}.Overrides())
	})

	t.Run("empty object", func(t *testing.T) {
		p := Payload{"recipientOverrides": map[string]any{}}
		assert.Nil(t, p.Overrides())
	})

	t.Run("single string to", func(t *testing.T) {
		p := Payload{"recipientOverrides": map[string]any{"to": "a@example.org"}}
		o := p.Overrides()
		require.NotNil(t, o)
		assert.Equal(t, []string{"a@example.org"}, o.To)
	})

	t.Run("full overrides", func(t *testing.T) {
		p := Payload{"recipientOverrides": map[string]any{
			"to":      []any{"a@example.org", "b@example.org"},
			"cc":      []any{"c@example.org"},
			"replyTo": " support@example.org ",
		}}
		o := p.Overrides()
		require.NotNil(t, o)
		assert.Equal(t, []string{"a@example.org", "b@example.org"}, o.To)
		assert.Equal(t, []string{"c@example.org"}, o.Cc)
		assert.Equal(t, "support@example.org", o.ReplyTo)
	})

	t.Run("blank entries dropped", func(t *testing.T) {
		p := Payload{"recipientOverrides": map[string]any{
			"to": []any{"", "  ", "a@example.org"},
		}}
		o := p.Overrides()
		require.NotNil(t, o)
		assert.Equal(t, []string{"a@example.org"}, o.To)
	})
}
