package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// CookieName is the name of the signed session cookie.
const CookieName = "utnode_session"

// DefaultTTL is the inactivity window after which a session expires.
const DefaultTTL = 4000 * time.Second

// contextKey is an unexported type for context keys in this package.
type contextKey string

const stateContextKey contextKey = "session"

// ErrNoState is returned when a request did not pass through Manager.Middleware.
var ErrNoState = errors.New("session: request did not pass through Manager.Middleware")

// state is the request-scoped view of the session. persisted is false until
// something is written, so anonymous visitors never create server state.
type state struct {
	sess      Session
	persisted bool
}

// Manager ties a Store to the signed session cookie.
type Manager struct {
	store  Store
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
	now    func() time.Time

	// ErrorHandler answers requests whose session could not be loaded.
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

// NewManager creates a Manager. hashKey signs the cookie; it should be at least 32 bytes.
// PRE: store is non-nil, hashKey is non-empty
// POST: Returns a Manager whose cookies expire after ttl of inactivity
func NewManager(store Store, hashKey []byte, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	codec := securecookie.New(hashKey, nil)
	codec.MaxAge(int(ttl.Seconds()))
	return &Manager{
		store:  store,
		codec:  codec,
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
		ErrorHandler: func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "internal server error", http.StatusInternalServerError)
		},
	}
}

// Middleware restores the session named by the cookie into the request context.
// A missing, tampered or expired cookie yields a fresh anonymous session.
// A live session has its expiry window restarted.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := &state{}
		if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
			var id string
			if err := m.codec.Decode(CookieName, cookie.Value, &id); err == nil {
				sess, err := m.store.Load(r.Context(), id)
				switch {
				case err == nil:
					st.sess = sess
					st.persisted = true
				case errors.Is(err, ErrNotFound):
				default:
					slog.Error("session_load_failed", "error", err.Error())
					m.ErrorHandler(w, r, err)
					return
				}
			}
		}
		if st.persisted {
			if err := m.save(r.Context(), w, st); err != nil {
				slog.Error("session_save_failed", "error", err.Error())
				m.ErrorHandler(w, r, err)
				return
			}
		}
		ctx := context.WithValue(r.Context(), stateContextKey, st)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Current returns the session bound to ctx. Outside Middleware it is the zero Session.
func Current(ctx context.Context) Session {
	if st, ok := ctx.Value(stateContextKey).(*state); ok {
		return st.sess
	}
	return Session{}
}

func stateFrom(r *http.Request) (*state, error) {
	st, ok := r.Context().Value(stateContextKey).(*state)
	if !ok {
		return nil, ErrNoState
	}
	return st, nil
}

// ensure persists an anonymous session the first time something is written to it.
func (m *Manager) ensure(w http.ResponseWriter, r *http.Request) (*state, error) {
	st, err := stateFrom(r)
	if err != nil {
		return nil, err
	}
	if st.persisted {
		return st, nil
	}
	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	st.sess = Session{ID: id, UserID: st.sess.UserID, CreatedAt: m.now()}
	if err := m.save(r.Context(), w, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (m *Manager) save(ctx context.Context, w http.ResponseWriter, st *state) error {
	if err := m.store.Save(ctx, st.sess, m.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	st.persisted = true
	encoded, err := m.codec.Encode(CookieName, st.sess.ID)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl.Seconds()),
	})
	return nil
}

// AddFlash queues messages under category for the next rendered page.
// POST: The session is persisted and holds the messages in order
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, category string, messages ...string) error {
	st, err := m.ensure(w, r)
	if err != nil {
		return err
	}
	for _, msg := range messages {
		if err := m.store.PushFlash(r.Context(), st.sess.ID, Flash{Category: category, Message: msg}, m.ttl); err != nil {
			return fmt.Errorf("add flash: %w", err)
		}
	}
	return nil
}

// Flashes returns and clears the pending flashes, grouped by category.
// POST: A second call in the same or a later request returns nothing new
func (m *Manager) Flashes(r *http.Request) (map[string][]string, error) {
	st, err := stateFrom(r)
	if err != nil || !st.persisted {
		return nil, err
	}
	flashes, err := m.store.PopFlashes(r.Context(), st.sess.ID)
	if err != nil {
		return nil, fmt.Errorf("read flashes: %w", err)
	}
	return Group(flashes), nil
}

// Login attaches userID to a fresh session ID. Pending flashes move to the new session.
// PRE: userID identifies an authenticated user
// POST: The old session is deleted; the cookie names the new one
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, userID string) error {
	return m.rotate(w, r, userID)
}

// Logout drops the identity and rotates the session ID.
// POST: The session is anonymous and persisted, so a flash can follow the redirect
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	return m.rotate(w, r, "")
}

func (m *Manager) rotate(w http.ResponseWriter, r *http.Request, userID string) error {
	st, err := stateFrom(r)
	if err != nil {
		return err
	}
	var pending []Flash
	if st.persisted {
		pending, err = m.store.PopFlashes(r.Context(), st.sess.ID)
		if err != nil {
			return fmt.Errorf("rotate session: %w", err)
		}
		if err := m.store.Delete(r.Context(), st.sess.ID); err != nil {
			return fmt.Errorf("rotate session: %w", err)
		}
	}
	id, err := generateID()
	if err != nil {
		return fmt.Errorf("generate session id: %w", err)
	}
	st.sess = Session{ID: id, UserID: userID, CreatedAt: m.now()}
	if err := m.save(r.Context(), w, st); err != nil {
		return err
	}
	for _, f := range pending {
		if err := m.store.PushFlash(r.Context(), id, f, m.ttl); err != nil {
			return fmt.Errorf("rotate session: %w", err)
		}
	}
	return nil
}

// ClearIdentity detaches the identity without rotating, used when the referenced
// user no longer exists.
func (m *Manager) ClearIdentity(w http.ResponseWriter, r *http.Request) error {
	st, err := stateFrom(r)
	if err != nil {
		return err
	}
	if !st.sess.IsAuthenticated() {
		return nil
	}
	st.sess.UserID = ""
	if !st.persisted {
		return nil
	}
	return m.save(r.Context(), w, st)
}
