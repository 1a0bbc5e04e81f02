package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageTemplate is the entry template for every view
const PageTemplate = "page"

// Renderer holds the parsed dashboard templates
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Template exposes the template set, for gin's HTML renderer
func (r *Renderer) Template() *template.Template {
	return r.tmpl
}

// Render writes the full page for p
func (r *Renderer) Render(w io.Writer, p Page) error {
	return r.tmpl.ExecuteTemplate(w, PageTemplate, p)
}
