package subscriber

import (
	"strings"

	"utnode/internal/domain/validation"
)

// Collection is the document collection holding subscribers.
const Collection = "subscribers"

// Subscriber is a newsletter subscriber.
type Subscriber struct {
	Name    string `json:"name" form:"name" validate:"notblank,max=100"`
	Email   string `json:"email" form:"email" validate:"required,email,max=254"`
	ZipCode int    `json:"zipCode,omitempty" form:"zipCode" validate:"omitempty,min=10000,max=99999"`
}

// Messages are the user-facing texts for Subscriber rule failures.
var Messages = validation.Messages{
	"name.notblank":  "Name is required",
	"email.required": "Enter a valid email",
	"email.email":    "Enter a valid email",
	"zipCode.min":    "Zip code must be 5 digits",
	"zipCode.max":    "Zip code must be 5 digits",
}

// Normalize trims the name and lower-cases the email.
func (s *Subscriber) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
}

// Validate checks if the Subscriber has valid data.
// PRE: Subscriber struct is populated
// POST: Returns nil if valid, validation.Violations otherwise
func (s Subscriber) Validate() error {
	return validation.Struct(s, Messages)
}
