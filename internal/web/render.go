// internal/web/render.go
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages served by the application.
var Pages = []string{
	"index",
	"login",
	"register",
	"dashboard",
	"settings",
	"change_password",
	"profile",
	"questions",
	"quiz",
}

// Data is the value handed to a page template.
type Data map[string]interface{}

type Renderer interface {
	Render(w io.Writer, page string, data Data) error
}

type Templates struct {
	pages map[string]*template.Template
}

func NewTemplates() (*Templates, error) {
	t := &Templates{pages: make(map[string]*template.Template, len(Pages))}
	for _, page := range Pages {
		tpl, err := template.New("layout.html").ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		t.pages[page] = tpl
	}
	return t, nil
}

func (t *Templates) Render(w io.Writer, page string, data Data) error {
	tpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return tpl.ExecuteTemplate(w, "layout", data)
}

// HTML renders page into w, buffering first so a template error can still be
// reported as a 500.
func HTML(w http.ResponseWriter, r Renderer, page string, data Data) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, page, data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
