package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"utnode/internal/adapters/session"
	"utnode/internal/adapters/storage/document"
	"utnode/internal/domain/user"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const userContextKey contextKey = "user"

// UserLoader defines the store interface needed by Identity.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (document.Record[user.User], error)
}

// IdentityStore is the part of session.Manager Identity needs.
type IdentityStore interface {
	ClearIdentity(w http.ResponseWriter, r *http.Request) error
}

// Identity resolves the session's user reference into the stored user.
// A reference to a user that no longer exists is cleared and the request
// continues anonymously. Other store failures go to onError.
// PRE: runs inside session.Manager.Middleware
func Identity(sessions IdentityStore, users UserLoader, onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.Current(r.Context())
			if !sess.IsAuthenticated() {
				next.ServeHTTP(w, r)
				return
			}
			rec, err := users.FindByID(r.Context(), sess.UserID)
			switch {
			case err == nil:
				r = r.WithContext(WithUser(r.Context(), rec))
			case errors.Is(err, document.ErrNotFound):
				slog.Info("auth_event", "event", "stale_identity", "user_id", sess.UserID)
				if err := sessions.ClearIdentity(w, r); err != nil {
					onError(w, r, err)
					return
				}
			default:
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the authenticated user attached by Identity.
func CurrentUser(ctx context.Context) (document.Record[user.User], bool) {
	rec, ok := ctx.Value(userContextKey).(document.Record[user.User])
	return rec, ok
}

// WithUser returns a context carrying rec as the authenticated user.
func WithUser(ctx context.Context, rec document.Record[user.User]) context.Context {
	return context.WithValue(ctx, userContextKey, rec)
}
