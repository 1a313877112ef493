package orchestrators

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"utnode/internal/adapters/email"
	"utnode/internal/domain/subscriber"
)

// WelcomeDeps holds dependencies for WelcomeSubscriber.
type WelcomeDeps struct {
	Sender email.Sender
}

// welcomeCategory tags welcome mails at the provider.
const welcomeCategory = "welcome"

var welcomeTmpl = template.Must(template.New("welcome").Parse(
	`<p>Hi {{.Name}},</p><p>Thanks for subscribing to the UT Node newsletter.</p>`))

// ExecuteWelcomeSubscriber sends the welcome mail to a new subscriber.
// Delivery failures are logged and returned; callers treat them as non-fatal.
// PRE: sub has passed validation
func ExecuteWelcomeSubscriber(ctx context.Context, sub subscriber.Subscriber, deps WelcomeDeps) error {
	var body bytes.Buffer
	if err := welcomeTmpl.Execute(&body, sub); err != nil {
		return fmt.Errorf("render welcome: %w", err)
	}
	if _, err := deps.Sender.Send(ctx, email.Message{
		To:       []string{sub.Email},
		Subject:  "Welcome to UT Node",
		HTML:     body.String(),
		Text:     fmt.Sprintf("Hi %s,\n\nThanks for subscribing to the UT Node newsletter.\n", sub.Name),
		Category: welcomeCategory,
	}); err != nil {
		slog.Warn("welcome_email_failed", "email", sub.Email, "error", err.Error())
		return fmt.Errorf("send welcome: %w", err)
	}
	return nil
}
