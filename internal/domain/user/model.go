package user

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"utnode/internal/domain/validation"
)

// Collection is the document collection holding users.
const Collection = "users"

// HashCost is the bcrypt work factor used by SetPassword.
var HashCost = 12

// Domain errors
var (
	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrWrongPassword = errors.New("incorrect password")
)

// User is the stored identity document.
type User struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	ZipCode      int    `json:"zipCode,omitempty"`
	PasswordHash string `json:"passwordHash"`
}

// FullName joins first and last name, falling back to the email.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Input is the registration and profile form.
type Input struct {
	FirstName string `form:"first" validate:"max=100"`
	LastName  string `form:"last" validate:"max=100"`
	Email     string `form:"email" validate:"required,email,max=254"`
	ZipCode   int    `form:"zipCode" validate:"omitempty,min=10000,max=99999"`
	Password  string `form:"password" validate:"min=5"`
}

// Messages are the user-facing texts for Input rule failures.
var Messages = validation.Messages{
	"email.required": "Enter a valid email",
	"email.email":    "Enter a valid email",
	"email.max":      "Email cannot exceed 254 characters",
	"password.min":   "Password must be at least 5 characters long",
	"zipCode.min":    "Zip code must be 5 digits",
	"zipCode.max":    "Zip code must be 5 digits",
	"first.max":      "First name cannot exceed 100 characters",
	"last.max":       "Last name cannot exceed 100 characters",
}

// Normalize trims names and lower-cases the email.
// POST: Input fields are canonical; Password is untouched
func (in *Input) Normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

// Validate checks the form against the registration rules.
// PRE: Input is populated and normalized
// POST: Returns nil if valid, validation.Violations otherwise
func (in Input) Validate() error {
	return validation.Struct(in, Messages)
}

// Apply copies the profile fields of in onto u. The password is not touched.
func (u *User) Apply(in Input) {
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Email = in.Email
	u.ZipCode = in.ZipCode
}

// SetPassword hashes and stores a password using bcrypt.
// PRE: plaintext is non-empty
// POST: PasswordHash is set to bcrypt hash
func (u *User) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), HashCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// INVARIANT: User fields are not mutated
func (u User) CheckPassword(plaintext string) error {
	if u.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}
