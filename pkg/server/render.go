package server

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"roster/pkg/store"
	"roster/pkg/view"
)

//go:embed templates/*.html
var templateFS embed.FS

type renderer struct {
	templates *template.Template
}

func newRenderer() *renderer {
	return &renderer{
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

func (r *renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// fragment renders the #app contents for st, as pushed over /events.
func (s *Server) fragment(st store.State) (string, error) {
	var buf bytes.Buffer
	if err := s.Echo.Renderer.Render(&buf, "app", view.Build(s.Catalog, st), nil); err != nil {
		return "", err
	}
	return buf.String(), nil
}
