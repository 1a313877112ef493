package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type managerFixture struct {
	store   *MemoryStore
	manager *Manager
	server  *httptest.Server
	client  *http.Client
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	store := NewMemoryStore()
	m := NewManager(store, []byte("0123456789abcdef0123456789abcdef"), time.Hour, false)

	mux := http.NewServeMux()
	mux.HandleFunc("/flash", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, m.AddFlash(w, r, r.URL.Query().Get("c"), r.URL.Query().Get("m")))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/read", func(w http.ResponseWriter, r *http.Request) {
		flashes, err := m.Flashes(r)
		assert.NoError(t, err)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"flashes": flashes,
			"user":    Current(r.Context()).UserID,
			"id":      Current(r.Context()).ID,
		})
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, m.AddFlash(w, r, "success", "Logged in!"))
		assert.NoError(t, m.Login(w, r, "user-1"))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, m.Logout(w, r))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/forget", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, m.ClearIdentity(w, r))
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(m.Middleware(mux))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &managerFixture{store: store, manager: m, server: srv, client: &http.Client{Jar: jar}}
}

type readResult struct {
	Flashes map[string][]string `json:"flashes"`
	User    string              `json:"user"`
	ID      string              `json:"id"`
}

func (f *managerFixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := f.client.Get(f.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *managerFixture) read(t *testing.T) readResult {
	t.Helper()
	resp := f.get(t, "/read")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out readResult
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestManager_AnonymousVisitCreatesNoSession(t *testing.T) {
	f := newManagerFixture(t)

	resp := f.get(t, "/read")
	assert.Empty(t, resp.Header.Values("Set-Cookie"))
	assert.Equal(t, 0, f.store.Len())
}

func TestManager_FlashShownExactlyOnce(t *testing.T) {
	f := newManagerFixture(t)

	f.get(t, "/flash?c=error&m=Failed+to+login.")
	assert.Equal(t, 1, f.store.Len())

	first := f.read(t)
	assert.Equal(t, map[string][]string{"error": {"Failed to login."}}, first.Flashes)

	second := f.read(t)
	assert.Empty(t, second.Flashes)
}

func TestManager_LoginRotatesSessionAndKeepsFlashes(t *testing.T) {
	f := newManagerFixture(t)

	f.get(t, "/flash?c=info&m=before")
	before := f.read(t)
	require.NotEmpty(t, before.ID)

	f.get(t, "/login")
	after := f.read(t)
	assert.Equal(t, "user-1", after.User)
	assert.NotEqual(t, before.ID, after.ID)
	assert.Equal(t, map[string][]string{"success": {"Logged in!"}}, after.Flashes)

	_, err := f.store.Load(t.Context(), before.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_LogoutClearsIdentity(t *testing.T) {
	f := newManagerFixture(t)

	f.get(t, "/login")
	loggedIn := f.read(t)
	require.Equal(t, "user-1", loggedIn.User)

	f.get(t, "/logout")
	out := f.read(t)
	assert.Empty(t, out.User)
	assert.NotEqual(t, loggedIn.ID, out.ID)
}

func TestManager_ClearIdentityKeepsSession(t *testing.T) {
	f := newManagerFixture(t)

	f.get(t, "/login")
	loggedIn := f.read(t)

	f.get(t, "/forget")
	out := f.read(t)
	assert.Empty(t, out.User)
	assert.Equal(t, loggedIn.ID, out.ID)
}

func TestManager_TamperedCookieIsAnonymous(t *testing.T) {
	f := newManagerFixture(t)
	f.get(t, "/login")

	u, err := url.Parse(f.server.URL)
	require.NoError(t, err)
	f.client.Jar.SetCookies(u, []*http.Cookie{{Name: CookieName, Value: "forged", Path: "/"}})

	out := f.read(t)
	assert.Empty(t, out.User)
	assert.Empty(t, out.ID)
}

func TestManager_ExpiredSessionIsAnonymous(t *testing.T) {
	f := newManagerFixture(t)
	now := time.Now()
	f.store.now = func() time.Time { return now }

	f.get(t, "/login")
	require.Equal(t, "user-1", f.read(t).User)

	now = now.Add(2 * time.Hour)
	out := f.read(t)
	assert.Empty(t, out.User)
}

func TestManager_StoreFailureUsesErrorHandler(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore()}
	m := NewManager(store, []byte("0123456789abcdef0123456789abcdef"), time.Hour, false)

	encoded, err := m.codec.Encode(CookieName, "some-id")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: encoded})
	rec := httptest.NewRecorder()

	called := false
	m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestManager_FlashesOutsideMiddleware(t *testing.T) {
	m := NewManager(NewMemoryStore(), []byte("0123456789abcdef0123456789abcdef"), 0, false)
	_, err := m.Flashes(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoState)
	assert.Equal(t, DefaultTTL, m.ttl)
}

type failingStore struct {
	*MemoryStore
}

func (failingStore) Load(context.Context, string) (Session, error) {
	return Session{}, assert.AnError
}
