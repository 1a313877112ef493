// Package email delivers outbound mail through an external provider.
package email

import (
	"context"
	"errors"
	"time"
)

// ErrNoRecipients is returned when a Message has no To address.
var ErrNoRecipients = errors.New("email: message has no recipients")

// Message is one outbound email.
type Message struct {
	To      []string
	From    string // Falls back to the sender's default when empty
	Subject string
	HTML    string
	Text    string // plain-text alternative
	ReplyTo string // Falls back to the sender's default when empty

	// Category groups messages in the provider's dashboard, e.g. "welcome".
	Category string
}

func (m Message) check() error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	return nil
}

// Receipt is the provider's acknowledgement of a Message.
type Receipt struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}
