// Package mail provides outbound email dispatch for account flows.
// Delivery is synchronous: callers learn about failures immediately so they
// can compensate (registration deletes the created user when the
// verification email cannot be sent).
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Dispatcher delivers messages. Implementations report success or failure
// synchronously to the caller.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the connection settings for the SMTP dispatcher.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPDispatcher delivers mail through an SMTP relay using gomail.
type SMTPDispatcher struct {
	dialer *gomail.Dialer
	from   string
	logger *slog.Logger
}

// NewSMTPDispatcher creates a dispatcher for the given relay.
func NewSMTPDispatcher(cfg SMTPConfig, logger *slog.Logger) *SMTPDispatcher {
	return &SMTPDispatcher{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

// Send delivers the message, honoring context cancellation.
// gomail dials synchronously, so the send runs in a goroutine and the
// result is collected through a channel.
func (d *SMTPDispatcher) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}

	done := make(chan error, 1)
	go func() {
		done <- d.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			d.logger.Error("mail delivery failed",
				"to", msg.To,
				"subject", msg.Subject,
				"error", err,
			)
			return fmt.Errorf("send mail to %s: %w", msg.To, err)
		}
		d.logger.Info("mail delivered", "to", msg.To, "subject", msg.Subject)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogDispatcher writes messages to the log instead of delivering them.
// Used in development when no SMTP relay is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a log-only dispatcher.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Send logs the message and reports success.
func (d *LogDispatcher) Send(_ context.Context, msg Message) error {
	d.logger.Info("mail (log only, not delivered)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.TextBody,
	)
	return nil
}
