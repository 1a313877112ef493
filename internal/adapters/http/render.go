package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"utnode/internal/adapters/http/middleware"
	"utnode/internal/adapters/session"
	"utnode/internal/domain/user"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageNames are the templates rendered inside layout.html.
var pageNames = []string{
	"home", "about", "transportation", "login", "error",
	"index", "show", "form",
}

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// baseFuncs declares every template func so the templates parse once at startup.
// The request-bound ones are replaced per render.
func baseFuncs() template.FuncMap {
	return template.FuncMap{
		"csrfToken":      func() string { return "" },
		"csrfField":      func() template.HTML { return "" },
		"flashMessages":  func() map[string][]string { return nil },
		"loggedIn":       func() bool { return false },
		"currentUser":    func() *user.User { return nil },
		"renderMarkdown": renderMarkdown,
	}
}

// parsePages builds one template set per page, each sharing layout.html.
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tpl, err := template.New("layout.html").Funcs(baseFuncs()).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tpl
	}
	return pages, nil
}

// render writes page name inside the layout with the standard locals.
// Pending flashes are consumed here, so they show on exactly one rendered page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, locals map[string]any) {
	base, ok := s.pages[name]
	if !ok {
		s.internalError(w, r, fmt.Errorf("unknown template %q", name))
		return
	}

	flashes, err := s.sessions.Flashes(r)
	if err != nil && !errors.Is(err, session.ErrNoState) {
		slog.Warn("flash_read_failed", "error", err.Error())
	}
	var current *user.User
	if rec, ok := middleware.CurrentUser(r.Context()); ok {
		u := rec.Data
		current = &u
	}

	tpl, err := base.Clone()
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	tpl.Funcs(template.FuncMap{
		"csrfToken":     func() string { return csrf.Token(r) },
		"csrfField":     func() template.HTML { return csrf.TemplateField(r) },
		"flashMessages": func() map[string][]string { return flashes },
		"loggedIn":      func() bool { return current != nil },
		"currentUser":   func() *user.User { return current },
	})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, locals); err != nil {
		s.internalError(w, r, fmt.Errorf("render %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError shows the generic error view.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, "error", map[string]any{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
}

// internalError logs the real error and shows the client a generic message.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	// Rendered without the request funcs so a broken session or store cannot fail twice.
	var buf bytes.Buffer
	base, ok := s.pages["error"]
	if ok {
		tpl, cerr := base.Clone()
		if cerr == nil {
			cerr = tpl.Execute(&buf, map[string]any{
				"Title":   http.StatusText(http.StatusInternalServerError),
				"Status":  http.StatusInternalServerError,
				"Message": "Sorry, our application is experiencing a problem.",
			})
		}
		ok = cerr == nil
	}
	if !ok {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = buf.WriteTo(w)
}
