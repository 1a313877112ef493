package orchestrators

import (
	"fmt"

	"utnode/internal/domain/user"
)

// ExecuteRegister builds the stored user from a submitted form. It serves both
// registration and profile update; existing carries the current document on update.
// PRE: in is the raw form
// POST: Returns validation.Violations if in is invalid; otherwise a user with a fresh bcrypt hash
func ExecuteRegister(in user.Input, existing user.User) (user.User, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return user.User{}, err
	}
	u := existing
	u.Apply(in)
	if err := u.SetPassword(in.Password); err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}
	return u, nil
}
