package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendSender sends mail via the Resend API.
type ResendSender struct {
	client  *resend.Client
	from    string
	replyTo string
}

var _ Sender = (*ResendSender)(nil)

// NewResendSender creates a ResendSender. from and replyTo are the defaults for
// messages that leave them empty; an empty replyTo means replies go to from.
// PRE: apiKey is a valid Resend API key; from is a valid sender address
func NewResendSender(apiKey, from, replyTo string) *ResendSender {
	return &ResendSender{
		client:  resend.NewClient(apiKey),
		from:    from,
		replyTo: replyTo,
	}
}

// request maps msg onto the Resend API, applying the sender defaults.
func (s *ResendSender) request(msg Message) *resend.SendEmailRequest {
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	}
	if req.From == "" {
		req.From = s.from
	}
	if req.ReplyTo == "" {
		req.ReplyTo = s.replyTo
	}
	if msg.Category != "" {
		req.Tags = []resend.Tag{{Name: "category", Value: msg.Category}}
	}
	return req
}

// Send delivers one message.
// PRE: msg has a subject
// POST: Returns the Resend message ID, or ErrNoRecipients without calling the API
func (s *ResendSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.check(); err != nil {
		return Receipt{}, err
	}
	sent, err := s.client.Emails.SendWithContext(ctx, s.request(msg))
	if err != nil {
		return Receipt{}, fmt.Errorf("resend send: %w", err)
	}
	slog.Info("email_sent", "provider", "resend", "message_id", sent.Id, "category", msg.Category, "recipients", len(msg.To))
	return Receipt{MessageID: sent.Id, SentAt: time.Now()}, nil
}

// New picks the Resend sender when apiKey is set, the no-op sender otherwise.
func New(apiKey, from, replyTo string) Sender {
	if apiKey == "" {
		return NewNoopSender()
	}
	return NewResendSender(apiKey, from, replyTo)
}
