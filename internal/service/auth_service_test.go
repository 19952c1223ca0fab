package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cdlite/portal-api/internal/domain"
)

func TestSignupVerifyLoginLifecycle(t *testing.T) {
	env := newAuthTestEnv(t, authTestOptions{})
	ctx := context.Background()

	env.signup(t, "ada@example.org", "correct horse battery")

	if len(env.notifier.verifications) != 1 {
		t.Fatalf("expected 1 verification mail, got %d", len(env.notifier.verifications))
	}
	mail := env.notifier.verifications[0]
	if !strings.Contains(mail.VerificationURL, "/verify-email?token="+mail.Token) {
		t.Fatalf("verification link does not carry the token: %q", mail.VerificationURL)
	}

	account, err := env.auth.VerifyEmail(ctx, mail.Token)
	if err != nil {
		t.Fatalf("verify email: %v", err)
	}
	if account.Role != domain.StoredRoleRegistered {
		t.Fatalf("redemption must not change the stored role, got %q", account.Role)
	}
	if account.EmailVerified == nil {
		t.Fatal("expected email_verified timestamp")
	}

	// Redemption is single-use.
	if _, err := env.auth.VerifyEmail(ctx, mail.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("second redemption should fail with ErrInvalidToken, got %v", err)
	}

	result, err := env.auth.Login(ctx, LoginInput{Email: "ada@example.org", Password: "correct horse battery"}, "go-test", "127.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Session.SessionToken == "" || result.Session.CSRFToken == "" {
		t.Fatal("expected session and csrf tokens")
	}
	if _, err := env.sessions.VerifySession(ctx, result.Session.SessionToken); err != nil {
		t.Fatalf("issued session should verify: %v", err)
	}
}

func TestSignupDuplicateEmailReportsGenericSuccess(t *testing.T) {
	env := newAuthTestEnv(t, authTestOptions{})

	env.signup(t, "dup@example.org", "password-one")
	env.signup(t, "dup@example.org", "password-two")

	if len(env.notifier.verifications) != 1 {
		t.Fatalf("duplicate signup must not send mail, got %d mails", len(env.notifier.verifications))
	}

	// The original credentials still win.
	ctx := context.Background()
	if _, err := env.auth.Login(ctx, LoginInput{Email: "dup@example.org", Password: "password-one"}, "", ""); err != nil {
		t.Fatalf("original password should log in: %v", err)
	}
	if _, err := env.auth.Login(ctx, LoginInput{Email: "dup@example.org", Password: "password-two"}, "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("second signup's password must not work, got %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	env := newAuthTestEnv(t, authTestOptions{})

	err := env.auth.Signup(context.Background(), SignupInput{Email: "not-an-email", Password: "short", Name: strings.Repeat("x", 300)})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"email", "password", "name"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("expected field error for %q: %v", field, verr.Fields)
		}
	}
}

func TestSignupWithoutNameSucceeds(t *testing.T) {
	env := newAuthTestEnv(t, authTestOptions{})
	ctx := context.Background()

	if err := env.auth.Signup(ctx, SignupInput{Email: "anon@example.org", Password: "correct horse battery"}); err != nil {
		t.Fatalf("nameless signup should succeed: %v", err)
	}
	if len(env.notifier.verifications) != 1 {
		t.Fatalf("expected 1 verification mail, got %d", len(env.notifier.verifications))
	}
	if _, err := env.auth.Login(ctx, LoginInput{Email: "anon@example.org", Password: "correct horse battery"}, "", ""); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestResendVerificationSupersedesToken(t *testing.T) {
	env := newAuthTestEnv(t, authTestOptions{})
	ctx := context.Background()

	env.signup(t, "ada@example.org", "correct horse battery")
	first := env.notifier.lastVerificationToken(t)

	if err := env.auth.ResendVerification(ctx, "ada@example.org"); err != nil {
		t.Fatalf("resend: %v", err)
	}
	second := env.notifier.lastVerificationToken(t)
	if first == second {
		t.Fatal("resend must mint a fresh token")
	}

	if _, err := env.auth.VerifyEmail(ctx, first); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("superseded token must be invalid, got %v", err)
	}
	if _, err := env.auth.VerifyEmail(ctx, second); err != nil {
		t.Fatalf("fresh token should redeem: %v", err)
	}
}

func TestResendVerificationGenericOutcomes(t *testing.T) {
	env := newAuthTestEnv(t, authTestOptions{})
	ctx := context.Background()

	if err := env.auth.ResendVerification(ctx, "nobody@example.org"); err != nil {
		t.Fatalf("unknown email must report success: %v", err)
	}
	if len(env.notifier.verifications) != 0 {
		t.Fatal("unknown email must not trigger mail")
	}

	env.signup(t, "ada@example.org", "correct horse battery")
	token := env.notifier.lastVerificationToken(t)
	if _, err := env.auth.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("verify: %v", err)
	}

	mails := len(env.notifier.verifications)
	if err := env.auth.ResendVerification(ctx, "ada@example.org"); err != nil {
		t.Fatalf("already-verified email must report success: %v", err)
	}
	if len(env.notifier.verifications) != mails {
		t.Fatal("already-verified email must not trigger mail")
	}
}

func TestLoginMergesCredentialErrors(t *testing.T) {
	env := newAuthTestEnv(t, authTestOptions{})
	ctx := context.Background()

	env.signup(t, "ada@example.org", "correct horse battery")

	cases := []struct {
		name string
		in   LoginInput
	}{
		{"unknown email", LoginInput{Email: "ghost@example.org", Password: "correct horse battery"}},
		{"wrong password", LoginInput{Email: "ada@example.org", Password: "wrong"}},
		{"empty password", LoginInput{Email: "ada@example.org"}},
		{"empty email", LoginInput{Password: "correct horse battery"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.auth.Login(ctx, tc.in, "", ""); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestLoginUnverifiedEmailGate(t *testing.T) {
	t.Run("allowed by default", func(t *testing.T) {
		env := newAuthTestEnv(t, authTestOptions{})
		env.signup(t, "ada@example.org", "correct horse battery")
		if _, err := env.auth.Login(context.Background(), LoginInput{Email: "ada@example.org", Password: "correct horse battery"}, "", ""); err != nil {
			t.Fatalf("unverified login should succeed by default: %v", err)
		}
	})

	t.Run("blocked when required", func(t *testing.T) {
		env := newAuthTestEnv(t, authTestOptions{requireVerifiedEmail: true})
		ctx := context.Background()
		env.signup(t, "ada@example.org", "correct horse battery")

		if _, err := env.auth.Login(ctx, LoginInput{Email: "ada@example.org", Password: "correct horse battery"}, "", ""); !errors.Is(err, ErrEmailNotVerified) {
			t.Fatalf("expected ErrEmailNotVerified, got %v", err)
		}

		if _, err := env.auth.VerifyEmail(ctx, env.notifier.lastVerificationToken(t)); err != nil {
			t.Fatalf("verify: %v", err)
		}
		if _, err := env.auth.Login(ctx, LoginInput{Email: "ada@example.org", Password: "correct horse battery"}, "", ""); err != nil {
			t.Fatalf("verified login should succeed: %v", err)
		}
	})
}

func TestForgotResetPasswordFlow(t *testing.T) {
	env := newAuthTestEnv(t, authTestOptions{})
	ctx := context.Background()

	env.signup(t, "ada@example.org", "old password 123")
	login, err := env.auth.Login(ctx, LoginInput{Email: "ada@example.org", Password: "old password 123"}, "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := env.auth.ForgotPassword(ctx, "ada@example.org"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	token := env.notifier.lastResetToken(t)

	if err := env.auth.ResetPassword(ctx, token, "new password 456"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	// Old credentials and old sessions are both dead.
	if _, err := env.auth.Login(ctx, LoginInput{Email: "ada@example.org", Password: "old password 123"}, "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must fail after reset, got %v", err)
	}
	if _, err := env.sessions.VerifySession(ctx, login.Session.SessionToken); err == nil {
		t.Fatal("pre-reset session must be revoked")
	}
	if _, err := env.auth.Login(ctx, LoginInput{Email: "ada@example.org", Password: "new password 456"}, "", ""); err != nil {
		t.Fatalf("new password should log in: %v", err)
	}

	// The reset token is single-use.
	if err := env.auth.ResetPassword(ctx, token, "another password 789"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("second reset with the same token must fail, got %v", err)
	}
}

func TestForgotPasswordUnknownEmailReportsGenericSuccess(t *testing.T) {
	env := newAuthTestEnv(t, authTestOptions{})

	if err := env.auth.ForgotPassword(context.Background(), "ghost@example.org"); err != nil {
		t.Fatalf("unknown email must report success: %v", err)
	}
	if len(env.notifier.resets) != 0 {
		t.Fatal("unknown email must not trigger mail")
	}
}

func TestResetPasswordRejectsShortPassword(t *testing.T) {
	env := newAuthTestEnv(t, authTestOptions{})

	err := env.auth.ResetPassword(context.Background(), "whatever", "short")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["password"]; !ok {
		t.Fatalf("expected password field error: %v", verr.Fields)
	}
}

func TestExpiredTokenIsDeletedOnDiscovery(t *testing.T) {
	env := newAuthTestEnv(t, authTestOptions{tokenTTL: -time.Minute})
	ctx := context.Background()

	env.signup(t, "ada@example.org", "correct horse battery")
	token := env.notifier.lastVerificationToken(t)

	if _, err := env.auth.VerifyEmail(ctx, token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
	// The expired row is swept at discovery, so a retry is a plain miss.
	if _, err := env.auth.VerifyEmail(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after sweep, got %v", err)
	}
}

func TestVerifyEmailRejectsMissingOrUnknownToken(t *testing.T) {
	env := newAuthTestEnv(t, authTestOptions{})
	ctx := context.Background()

	if _, err := env.auth.VerifyEmail(ctx, ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty token: expected ErrInvalidToken, got %v", err)
	}
	if _, err := env.auth.VerifyEmail(ctx, "deadbeef"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unknown token: expected ErrInvalidToken, got %v", err)
	}
}

func TestCleanupExpiredTokens(t *testing.T) {
	env := newAuthTestEnv(t, authTestOptions{tokenTTL: -time.Minute})
	ctx := context.Background()

	env.signup(t, "ada@example.org", "correct horse battery")

	removed, err := env.auth.CleanupExpiredTokens(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 expired token removed, got %d", removed)
	}
}
