package api

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// ErrWriteBody marks a failure that happened after the status line was sent.
var ErrWriteBody = errors.New("writing response body")

// StaticHandler serves the embedded page scripts under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

var pages = []string{viewHome, viewDreamList, viewDestination, viewDetails, viewRegister, viewLogin, viewError}

// TemplateRenderer renders embedded html/template pages wrapped in the
// shared layout.
type TemplateRenderer struct {
	pages map[string]*template.Template
}

// NewTemplateRenderer parses every embedded page.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	r := &TemplateRenderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New(name).ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes the page into a buffer before writing the status line.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrWriteBody, name, err)
	}
	return nil
}
