package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"utnode/internal/adapters/email"
	"utnode/internal/adapters/storage/document"
	"utnode/internal/domain/subscriber"
	"utnode/internal/domain/user"
	"utnode/internal/domain/validation"
)

func TestMain(m *testing.M) {
	user.HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

// --- in-memory test doubles ---

type memUserStore struct {
	users   []document.Record[user.User]
	findErr error
}

// FindOne looks a user up by email.
// PRE: field is "email"
// POST: returns the record or document.ErrNotFound
func (s *memUserStore) FindOne(_ context.Context, field string, value any) (document.Record[user.User], error) {
	if s.findErr != nil {
		return document.Record[user.User]{}, s.findErr
	}
	for _, r := range s.users {
		if field == "email" && r.Data.Email == value {
			return r, nil
		}
	}
	return document.Record[user.User]{}, document.ErrNotFound
}

func (s *memUserStore) Count(context.Context) (int, error) {
	return len(s.users), nil
}

func (s *memUserStore) Insert(_ context.Context, u user.User) (document.Record[user.User], error) {
	rec := document.Record[user.User]{ID: fmt.Sprintf("u-%d", len(s.users)+1), Data: u}
	s.users = append(s.users, rec)
	return rec, nil
}

func storeWith(t *testing.T, emailAddr, password string) *memUserStore {
	t.Helper()
	u, err := ExecuteRegister(user.Input{FirstName: "Ada", LastName: "Lovelace", Email: emailAddr, Password: password}, user.User{})
	require.NoError(t, err)
	s := &memUserStore{}
	_, err = s.Insert(context.Background(), u)
	require.NoError(t, err)
	return s
}

// --- login ---

func TestLogin_Success(t *testing.T) {
	s := storeWith(t, "ada@example.com", "secret1")

	res, err := ExecuteLogin(context.Background(), LoginInput{Email: " ADA@example.com ", Password: "secret1"}, LoginDeps{Users: s})
	require.NoError(t, err)
	assert.Equal(t, "u-1", res.UserID)
	assert.Equal(t, "Ada Lovelace", res.Name)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	s := storeWith(t, "ada@example.com", "secret1")

	cases := []LoginInput{
		{Email: "ada@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "secret1"},
		{Email: "", Password: "secret1"},
		{Email: "ada@example.com", Password: ""},
	}
	for _, in := range cases {
		_, err := ExecuteLogin(context.Background(), in, LoginDeps{Users: s})
		assert.ErrorIs(t, err, ErrInvalidCredentials, "input %+v", in)
		assert.Equal(t, ErrInvalidCredentials.Error(), err.Error())
	}
}

func TestLogin_StoreFailureIsNotAuthFailure(t *testing.T) {
	boom := errors.New("db down")
	_, err := ExecuteLogin(context.Background(), LoginInput{Email: "a@example.com", Password: "x"}, LoginDeps{Users: &memUserStore{findErr: boom}})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

// --- register ---

func TestRegister_HashesPassword(t *testing.T) {
	u, err := ExecuteRegister(user.Input{Email: "New@Example.com", Password: "12345"}, user.User{})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.NotEqual(t, "12345", u.PasswordHash)
	assert.NoError(t, u.CheckPassword("12345"))
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	_, err := ExecuteRegister(user.Input{Email: "a@example.com", Password: "1234"}, user.User{})
	var v validation.Violations
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Messages(), "Password must be at least 5 characters long")
}

func TestRegister_ReportsEveryViolation(t *testing.T) {
	_, err := ExecuteRegister(user.Input{Email: "not-an-email", Password: "123"}, user.User{})
	var v validation.Violations
	require.ErrorAs(t, err, &v)
	assert.Equal(t, []string{"Enter a valid email", "Password must be at least 5 characters long"}, v.Messages())
}

func TestRegister_UpdateKeepsUnsetFields(t *testing.T) {
	existing := user.User{FirstName: "Old", Email: "old@example.com", PasswordHash: "x"}
	u, err := ExecuteRegister(user.Input{FirstName: "New", Email: "old@example.com", Password: "abcdef"}, existing)
	require.NoError(t, err)
	assert.Equal(t, "New", u.FirstName)
	assert.NoError(t, u.CheckPassword("abcdef"))
}

// --- seed ---

func TestSeedAdmin_CreatesWhenEmpty(t *testing.T) {
	s := &memUserStore{}
	in := SeedAdminInput{Email: "admin@example.com", Password: "admin123"}
	require.NoError(t, ExecuteSeedAdmin(context.Background(), in, SeedAdminDeps{Users: s}))
	require.Len(t, s.users, 1)

	// Idempotent.
	require.NoError(t, ExecuteSeedAdmin(context.Background(), in, SeedAdminDeps{Users: s}))
	assert.Len(t, s.users, 1)

	_, err := ExecuteLogin(context.Background(), LoginInput{Email: in.Email, Password: in.Password}, LoginDeps{Users: s})
	assert.NoError(t, err)
}

func TestSeedAdmin_SkippedWithoutPassword(t *testing.T) {
	s := &memUserStore{}
	require.NoError(t, ExecuteSeedAdmin(context.Background(), SeedAdminInput{Email: "admin@example.com"}, SeedAdminDeps{Users: s}))
	assert.Empty(t, s.users)
}

// --- welcome ---

type failingSender struct{}

func (failingSender) Send(context.Context, email.Message) (email.Receipt, error) {
	return email.Receipt{}, errors.New("provider down")
}

func TestWelcomeSubscriber_SendsMail(t *testing.T) {
	sender := email.NewNoopSender()
	sub := subscriber.Subscriber{Name: "Grace <Hopper>", Email: "grace@example.com"}
	require.NoError(t, ExecuteWelcomeSubscriber(context.Background(), sub, WelcomeDeps{Sender: sender}))

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"grace@example.com"}, sent[0].To)
	assert.Contains(t, sent[0].HTML, "Grace &lt;Hopper&gt;")
	assert.Contains(t, sent[0].Text, "Hi Grace <Hopper>,")
	assert.Equal(t, "welcome", sent[0].Category)
}

func TestWelcomeSubscriber_ReturnsSendError(t *testing.T) {
	err := ExecuteWelcomeSubscriber(context.Background(), subscriber.Subscriber{Email: "x@example.com"}, WelcomeDeps{Sender: failingSender{}})
	assert.Error(t, err)
}
