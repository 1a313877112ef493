// Package web serves the server-rendered site: the six entity resources, the
// login flow and the static pages.
package web

import (
	"errors"
	"fmt"
	"html/template"
	"time"

	"utnode/internal/adapters/email"
	"utnode/internal/adapters/session"
	"utnode/internal/adapters/storage/document"
	"utnode/internal/domain/course"
	"utnode/internal/domain/game"
	"utnode/internal/domain/subscriber"
	"utnode/internal/domain/talk"
	"utnode/internal/domain/train"
	"utnode/internal/domain/user"
)

// Stores holds the document collections behind the resources.
type Stores struct {
	Users       *document.Collection[user.User]
	Subscribers *document.Collection[subscriber.Subscriber]
	Courses     *document.Collection[course.Course]
	Talks       *document.Collection[talk.Talk]
	Trains      *document.Collection[train.Train]
	Games       *document.Collection[game.Game]
}

// Options configures the HTTP surface.
type Options struct {
	StaticDir          string
	CSRFKey            []byte
	Secure             bool // production: Secure cookies, TLS-style CSRF checks
	RateLimitPerSecond int
	SlowRequestMs      int
}

// Server owns the templates and dependencies shared by every handler.
type Server struct {
	stores   Stores
	sessions *session.Manager
	mailer   email.Sender
	opts     Options
	pages    map[string]*template.Template
}

// NewServer parses the templates and wires the dependencies.
// PRE: every store and sessions are non-nil; opts.CSRFKey is 32 bytes
// POST: Returns a Server whose Handler serves the whole site
func NewServer(stores Stores, sessions *session.Manager, mailer email.Sender, opts Options) (*Server, error) {
	if sessions == nil {
		return nil, errors.New("web: session manager is required")
	}
	if len(opts.CSRFKey) != 32 {
		return nil, fmt.Errorf("web: CSRF key must be 32 bytes, got %d", len(opts.CSRFKey))
	}
	if mailer == nil {
		mailer = email.NewNoopSender()
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	s := &Server{
		stores:   stores,
		sessions: sessions,
		mailer:   mailer,
		opts:     opts,
		pages:    pages,
	}
	sessions.ErrorHandler = s.internalError
	return s, nil
}

// rateInterval is the refill window for Options.RateLimitPerSecond.
const rateInterval = time.Second
