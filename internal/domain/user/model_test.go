package user

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"utnode/internal/domain/validation"
)

func init() {
	HashCost = bcrypt.MinCost
}

func TestInput_Validate(t *testing.T) {
	tests := []struct {
		name     string
		input    Input
		wantMsgs []string
	}{
		{
			name:  "valid minimal",
			input: Input{Email: "a@b.com", Password: "12345"},
		},
		{
			name:     "short password",
			input:    Input{Email: "a@b.com", Password: "1234"},
			wantMsgs: []string{"Password must be at least 5 characters long"},
		},
		{
			name:     "bad email and short password",
			input:    Input{Email: "not-an-email", Password: "1"},
			wantMsgs: []string{"Enter a valid email", "Password must be at least 5 characters long"},
		},
		{
			name:     "missing email",
			input:    Input{Password: "secret"},
			wantMsgs: []string{"Enter a valid email"},
		},
		{
			name:     "zip out of range",
			input:    Input{Email: "a@b.com", Password: "12345", ZipCode: 123},
			wantMsgs: []string{"Zip code must be 5 digits"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantMsgs == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var v validation.Violations
			if !errors.As(err, &v) {
				t.Fatalf("expected violations, got %v", err)
			}
			got := v.Messages()
			if len(got) != len(tt.wantMsgs) {
				t.Fatalf("messages = %v, want %v", got, tt.wantMsgs)
			}
			for i := range got {
				if got[i] != tt.wantMsgs[i] {
					t.Errorf("message[%d] = %q, want %q", i, got[i], tt.wantMsgs[i])
				}
			}
		})
	}
}

func TestInput_Normalize(t *testing.T) {
	in := Input{FirstName: "  Ann ", Email: "  Ann@Example.COM "}
	in.Normalize()
	if in.FirstName != "Ann" {
		t.Errorf("FirstName = %q", in.FirstName)
	}
	if in.Email != "ann@example.com" {
		t.Errorf("Email = %q", in.Email)
	}
}

func TestUser_PasswordRoundTrip(t *testing.T) {
	var u User
	if err := u.SetPassword("hunter22"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if u.PasswordHash == "hunter22" {
		t.Fatal("password stored in plaintext")
	}
	if err := u.CheckPassword("hunter22"); err != nil {
		t.Errorf("CheckPassword(correct) = %v", err)
	}
	if err := u.CheckPassword("hunter23"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("CheckPassword(wrong) = %v, want ErrWrongPassword", err)
	}
}

func TestUser_SetPasswordEmpty(t *testing.T) {
	var u User
	if err := u.SetPassword(""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("SetPassword(\"\") = %v, want ErrEmptyPassword", err)
	}
}

func TestUser_CheckPasswordWithoutHash(t *testing.T) {
	var u User
	if err := u.CheckPassword("anything"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("CheckPassword = %v, want ErrWrongPassword", err)
	}
}

func TestUser_FullName(t *testing.T) {
	if got := (User{FirstName: "Ann", LastName: "Lee"}).FullName(); got != "Ann Lee" {
		t.Errorf("FullName = %q", got)
	}
	if got := (User{Email: "a@b.com"}).FullName(); got != "a@b.com" {
		t.Errorf("FullName fallback = %q", got)
	}
}
