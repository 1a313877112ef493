package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session   Session
	flashes   []Flash
	expiresAt time.Time
}

// MemoryStore is an in-memory session store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	now      func() time.Time
}

// Compile-time check that *MemoryStore satisfies Store.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		now:      time.Now,
	}
}

// live returns the entry for id, dropping it if expired.
// PRE: ms.mu is held
func (ms *MemoryStore) live(id string) (*memoryEntry, bool) {
	e, ok := ms.sessions[id]
	if !ok {
		return nil, false
	}
	if !ms.now().Before(e.expiresAt) {
		delete(ms.sessions, id)
		return nil, false
	}
	return e, true
}

// Load retrieves a session by ID.
// PRE: id is non-empty
// POST: Returns session if present and not expired, ErrNotFound otherwise
func (ms *MemoryStore) Load(_ context.Context, id string) (Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	e, ok := ms.live(id)
	if !ok {
		return Session{}, ErrNotFound
	}
	return e.session, nil
}

// Save stores the session and restarts its expiry window.
// POST: Session is stored; pending flashes are kept
func (ms *MemoryStore) Save(_ context.Context, s Session, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	e, ok := ms.live(s.ID)
	if !ok {
		e = &memoryEntry{}
		ms.sessions[s.ID] = e
	}
	e.session = s
	e.expiresAt = ms.now().Add(ttl)
	return nil
}

// Delete removes a session and its flashes.
// POST: Session with given ID is removed
func (ms *MemoryStore) Delete(_ context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.sessions, id)
	return nil
}

// PushFlash queues a flash on the session.
// PRE: the session has been saved
// POST: Flash appended; expiry window restarted
func (ms *MemoryStore) PushFlash(_ context.Context, id string, f Flash, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	e, ok := ms.live(id)
	if !ok {
		return ErrNotFound
	}
	e.flashes = append(e.flashes, f)
	e.expiresAt = ms.now().Add(ttl)
	return nil
}

// PopFlashes returns the pending flashes and clears them.
// POST: The session has no pending flashes
func (ms *MemoryStore) PopFlashes(_ context.Context, id string) ([]Flash, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	e, ok := ms.live(id)
	if !ok {
		return nil, nil
	}
	out := e.flashes
	e.flashes = nil
	return out, nil
}

// Len returns the number of live sessions.
func (ms *MemoryStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	n := 0
	for id := range ms.sessions {
		if _, ok := ms.live(id); ok {
			n++
		}
	}
	return n
}
