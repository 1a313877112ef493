package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	"utnode/internal/adapters/http/middleware"
)

// route is one entry of the dispatch table.
type route struct {
	method  string
	pattern string
	handler http.HandlerFunc
}

func (s *Server) routes() []route {
	rs := []route{
		{http.MethodGet, "/", s.pipeline(s.page("home", "Home"))},
		{http.MethodGet, "/about", s.pipeline(s.page("about", "About"))},
		{http.MethodGet, "/transportation", s.pipeline(s.page("transportation", "Transportation"))},
		{http.MethodGet, "/users/login", s.pipeline(s.loginView)},
		{http.MethodPost, "/users/login", s.pipeline(s.authenticate, redirectView)},
		{http.MethodGet, "/users/logout", s.pipeline(s.logout, redirectView)},
	}
	rs = append(rs, s.userResource().routes(s)...)
	rs = append(rs, s.subscriberResource().routes(s)...)
	rs = append(rs, s.courseResource().routes(s)...)
	rs = append(rs, s.talkResource().routes(s)...)
	rs = append(rs, s.trainResource().routes(s)...)
	rs = append(rs, s.gameResource().routes(s)...)
	return rs
}

// Handler returns the site with its middleware stack, outermost first:
// Recover, Timing, SecurityHeaders, RateLimit, MethodOverride, CSRF, Session, Identity.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recover(s.internalError),
		middleware.Timing(s.opts.SlowRequestMs, "/public/"),
		middleware.SecurityHeaders,
		middleware.RateLimit(middleware.NewRateLimiter(s.opts.RateLimitPerSecond, rateInterval)),
		middleware.MethodOverride,
		middleware.CSRF(s.opts.CSRFKey, s.opts.Secure, http.HandlerFunc(s.csrfFailure)),
		s.sessions.Middleware,
		middleware.Identity(s.sessions, s.stores.Users, s.internalError),
	)
	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.notFound)

	for _, rt := range s.routes() {
		r.Method(rt.method, rt.pattern, rt.handler)
	}
	if s.opts.StaticDir != "" {
		r.Handle("/public/*", http.StripPrefix("/public/", http.FileServer(http.Dir(s.opts.StaticDir))))
	}
	return r
}

func (s *Server) csrfFailure(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("csrf_rejected", "method", r.Method, "path", r.URL.Path, "reason", reason)
	s.renderError(w, r, http.StatusForbidden, "Your form session has expired. Please go back and try again.")
}
