package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// RenderedContent is the output of the content renderer: a subject plus text
// and HTML representations produced from the same resolved field set, so the
// two bodies never diverge in substantive content.
type RenderedContent struct {
	Subject string
	Text    string
	HTML    string
}

//go:embed templates/*.txt templates/*.html
var templateFS embed.FS

var (
	textTemplates    = texttemplate.Must(texttemplate.New("").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*.txt"))
	htmlTemplates    = htmltemplate.Must(htmltemplate.New("").Funcs(sprig.HtmlFuncMap()).ParseFS(templateFS, "templates/*.html"))
	subjectTemplates = map[Kind]*texttemplate.Template{}
)

func init() {
	for kind, def := range registry {
		subjectTemplates[kind] = texttemplate.Must(
			texttemplate.New(string(kind) + ".subject").Funcs(sprig.TxtFuncMap()).Parse(def.Subject))
	}
}

// Renderer produces notification content. Rendering is a pure function of
// (kind, payload, now); the timestamp is captured once by the caller and used
// identically in both representations.
type Renderer struct {
	baseURL      string
	brandingName string
}

// NewRenderer creates a renderer with the site globals interpolated into
// action links and subject prefixes.
func NewRenderer(baseURL, brandingName string) *Renderer {
	return &Renderer{baseURL: baseURL, brandingName: brandingName}
}

// Render resolves the kind's field set against the payload, applying the
// documented fallbacks for absent optional fields, and executes the subject,
// text, and HTML templates over the same data.
func (r *Renderer) Render(kind Kind, payload Payload, now time.Time) (*RenderedContent, error) {
	def, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("no template registered for kind %q", kind)
	}

	data := map[string]any{
		"BaseURL":      r.baseURL,
		"BrandingName": r.brandingName,
		"SentAt":       now.UTC().Format("January 2, 2006 at 15:04 UTC"),
	}
	for _, f := range def.Fields {
		value := payload.String(f.Path)
		if value == "" {
			value = f.Fallback
		}
		data[f.Name] = value
	}

	subject, err := executeText(subjectTemplates[kind], data)
	if err != nil {
		return nil, fmt.Errorf("rendering subject for %s: %w", kind, err)
	}

	var text bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, def.Template+".txt", data); err != nil {
		return nil, fmt.Errorf("rendering text body for %s: %w", kind, err)
	}

	var html bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, def.Template+".html", data); err != nil {
		return nil, fmt.Errorf("rendering html body for %s: %w", kind, err)
	}

	content := &RenderedContent{
		Subject: strings.TrimSpace(subject),
		Text:    text.String(),
		HTML:    html.String(),
	}
	if strings.TrimSpace(content.Text) == "" || strings.TrimSpace(content.HTML) == "" {
		return nil, fmt.Errorf("empty rendered body for %s", kind)
	}
	return content, nil
}

func executeText(t *texttemplate.Template, data map[string]any) (string, error) {
	var b bytes.Buffer
	err := t.Execute(&b, data)
	return b.String(), err
}
