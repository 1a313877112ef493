package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"utnode/internal/adapters/storage/document"
	"utnode/internal/domain/user"
)

// UserSeeder defines the store interface needed by SeedAdmin.
type UserSeeder interface {
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, u user.User) (document.Record[user.User], error)
}

// SeedAdminInput carries the configured default account.
type SeedAdminInput struct {
	Email    string
	Password string
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	Users UserSeeder
}

// ExecuteSeedAdmin creates the default user when the users collection is empty.
// PRE: Database is migrated
// POST: Exactly one user exists if none did and a password was configured
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedAdminDeps) error {
	if input.Password == "" {
		slog.Debug("seed_admin_skipped", "reason", "no_password")
		return nil
	}
	n, err := deps.Users.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if n > 0 {
		return nil
	}

	u, err := ExecuteRegister(user.Input{
		FirstName: "Admin",
		Email:     input.Email,
		Password:  input.Password,
	}, user.User{})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	rec, err := deps.Users.Insert(ctx, u)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	slog.Info("seed_admin_created", "user_id", rec.ID, "email", u.Email)
	return nil
}
