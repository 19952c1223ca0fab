package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/cdlite/portal-api/internal/observability"
)

// SMTPNotifier sends lifecycle mail through a real SMTP relay.
type SMTPNotifier struct {
	dialer  *gomail.Dialer
	from    string
	timeout time.Duration
	logger  *slog.Logger
}

func NewSMTPNotifier(host string, port int, user, password, from string, timeout time.Duration, logger *slog.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		dialer:  gomail.NewDialer(host, port, user, password),
		from:    from,
		timeout: timeout,
		logger:  logger,
	}
}

func (n *SMTPNotifier) SendEmailVerification(ctx context.Context, notification VerificationNotification) error {
	subject, html := verificationMailBody(notification.Name, notification.VerificationURL, notification.ExpiresAt)
	err := n.send(ctx, notification.Email, subject, html)
	if err != nil {
		observability.RecordMailDelivery(ctx, "email_verification", "failed")
		return err
	}
	observability.RecordMailDelivery(ctx, "email_verification", "sent")
	return nil
}

func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, notification PasswordResetNotification) error {
	subject, html := passwordResetMailBody(notification.Name, notification.ResetURL, notification.ExpiresAt)
	err := n.send(ctx, notification.Email, subject, html)
	if err != nil {
		observability.RecordMailDelivery(ctx, "password_reset", "failed")
		return err
	}
	observability.RecordMailDelivery(ctx, "password_reset", "sent")
	return nil
}

// send runs the blocking gomail dial in a goroutine because the library has
// no context support; the caller's deadline still bounds the wait.
func (n *SMTPNotifier) send(ctx context.Context, to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- n.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		n.logger.WarnContext(ctx, "smtp send abandoned", "to", to, "subject", subject)
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}
