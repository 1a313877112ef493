package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"utnode/internal/adapters/storage/document"
	"utnode/internal/domain/user"
)

// UserFinder defines the store interface needed by Login.
type UserFinder interface {
	FindOne(ctx context.Context, field string, value any) (document.Record[user.User], error)
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the identity to attach to the session.
type LoginResult struct {
	UserID string
	Email  string
	Name   string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Users UserFinder
}

// ErrInvalidCredentials never says which credential was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

// dummyHash is compared against when no user matches, so an unknown email costs
// the same bcrypt work as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("utnode-no-such-user"), user.HashCost)
	if err != nil {
		panic(fmt.Sprintf("orchestrators: dummy hash: %v", err))
	}
	return hash
})

// ExecuteLogin checks credentials and returns the identity for session creation.
// PRE: deps.Users is non-nil
// POST: Returns the matching user on success, ErrInvalidCredentials on any mismatch
// INVARIANT: Store failures are returned wrapped, never as ErrInvalidCredentials
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	in := user.Input{Email: input.Email}
	in.Normalize()
	if in.Email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	rec, err := deps.Users.FindOne(ctx, "email", in.Email)
	if errors.Is(err, document.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(input.Password))
		slog.Info("auth_event", "event", "login_failed", "email", in.Email, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("login lookup: %w", err)
	}

	if err := rec.Data.CheckPassword(input.Password); err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", in.Email, "reason", "wrong_password")
		return LoginResult{}, ErrInvalidCredentials
	}

	slog.Info("auth_event", "event", "login_success", "user_id", rec.ID)
	return LoginResult{
		UserID: rec.ID,
		Email:  rec.Data.Email,
		Name:   rec.Data.FullName(),
	}, nil
}
