package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type VerificationNotification struct {
	Email           string
	Name            string
	Token           string
	ExpiresAt       time.Time
	VerificationURL string
}

type PasswordResetNotification struct {
	Email     string
	Name      string
	Token     string
	ExpiresAt time.Time
	ResetURL  string
}

// LifecycleNotifier delivers account-lifecycle mail. Failures are logged and
// swallowed by callers: a mail outage must not turn signup into an error the
// caller can distinguish from success.
type LifecycleNotifier interface {
	SendEmailVerification(ctx context.Context, n VerificationNotification) error
	SendPasswordReset(ctx context.Context, n PasswordResetNotification) error
}

// DevNotifier logs the links instead of sending mail. Default outside of
// environments with SMTP configured.
type DevNotifier struct {
	logger *slog.Logger
}

func NewDevNotifier(logger *slog.Logger) *DevNotifier {
	return &DevNotifier{logger: logger}
}

func (n *DevNotifier) SendEmailVerification(ctx context.Context, notification VerificationNotification) error {
	n.logger.InfoContext(ctx, "email verification link issued",
		"email", notification.Email,
		"expires_at", notification.ExpiresAt,
		"verification", notification.VerificationURL,
	)
	return nil
}

func (n *DevNotifier) SendPasswordReset(ctx context.Context, notification PasswordResetNotification) error {
	n.logger.InfoContext(ctx, "password reset link issued",
		"email", notification.Email,
		"expires_at", notification.ExpiresAt,
		"reset", notification.ResetURL,
	)
	return nil
}

func verificationMailBody(name, link string, expiresAt time.Time) (subject, html string) {
	if name == "" {
		name = "there"
	}
	subject = "Verify your CDLite account"
	html = fmt.Sprintf(`<p>Hi %s,</p>
<p>Thanks for signing up for the CDLite climate data portal. Confirm your email address to unlock verified access:</p>
<p><a href="%s">Verify my email</a></p>
<p>This link expires at %s. If you did not create an account, you can ignore this message.</p>`,
		name, link, expiresAt.UTC().Format(time.RFC1123))
	return subject, html
}

func passwordResetMailBody(name, link string, expiresAt time.Time) (subject, html string) {
	if name == "" {
		name = "there"
	}
	subject = "Reset your CDLite password"
	html = fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset the password for your CDLite account. Choose a new password here:</p>
<p><a href="%s">Reset my password</a></p>
<p>This link expires at %s. If you did not request a reset, no action is needed; your password is unchanged.</p>`,
		name, link, expiresAt.UTC().Format(time.RFC1123))
	return subject, html
}
