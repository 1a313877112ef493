// Package session keeps server-side sessions keyed by a signed cookie, and the
// one-shot flash messages queued on them.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session is the server-side state tied to one client cookie.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAuthenticated reports whether an identity is attached.
// INVARIANT: Session fields are not mutated
func (s Session) IsAuthenticated() bool {
	return s.UserID != ""
}

// Flash is a notification shown on the next rendered page, then discarded.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Store persists sessions and their pending flashes.
// Implementations must be safe for concurrent use.
type Store interface {
	Load(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	PushFlash(ctx context.Context, id string, f Flash, ttl time.Duration) error
	// PopFlashes returns and clears the pending flashes in one atomic step.
	PopFlashes(ctx context.Context, id string) ([]Flash, error)
}

// Group arranges flashes by category, keeping insertion order inside each category.
func Group(flashes []Flash) map[string][]string {
	if len(flashes) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, f := range flashes {
		out[f.Category] = append(out[f.Category], f.Message)
	}
	return out
}

func generateID() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
