package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/cdlite/portal-api/internal/domain"
	"github.com/cdlite/portal-api/internal/observability"
	"github.com/cdlite/portal-api/internal/repository"
	"github.com/cdlite/portal-api/internal/security"
)

const minPasswordLength = 8

// AuthService owns the account lifecycle: signup, email verification, login,
// and the forgot/reset password flow. Operations that take an email address
// from an unauthenticated caller (signup, resend, forgot) report generic
// success whether or not the account exists, so responses cannot be used to
// enumerate registered emails.
type AuthService struct {
	accounts repository.AccountRepository
	tokens   repository.VerificationTokenRepository
	sessions *SessionService
	notifier LifecycleNotifier
	logger   *slog.Logger

	portalBaseURL        string
	tokenTTL             time.Duration
	requireVerifiedEmail bool
}

func NewAuthService(
	accounts repository.AccountRepository,
	tokens repository.VerificationTokenRepository,
	sessions *SessionService,
	notifier LifecycleNotifier,
	logger *slog.Logger,
	portalBaseURL string,
	tokenTTL time.Duration,
	requireVerifiedEmail bool,
) *AuthService {
	return &AuthService{
		accounts:             accounts,
		tokens:               tokens,
		sessions:             sessions,
		notifier:             notifier,
		logger:               logger,
		portalBaseURL:        strings.TrimRight(portalBaseURL, "/"),
		tokenTTL:             tokenTTL,
		requireVerifiedEmail: requireVerifiedEmail,
	}
}

type SignupInput struct {
	Email        string
	Password     string
	Name         string
	Organization string
	Country      string
	Phone        string
}

// Signup creates the account and issues a verification link. A duplicate
// email is not an error: the caller sees the same success it would for a
// fresh signup, and no mail is sent.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) error {
	email := normalizeEmail(in.Email)

	verr := newValidationError()
	if !validEmail(email) {
		verr.add("email", "a valid email address is required")
	}
	if len(in.Password) < minPasswordLength {
		verr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	// Name is optional at signup; a profile update can fill it in later.
	if len(strings.TrimSpace(in.Name)) > 255 {
		verr.add("name", "name must be at most 255 characters")
	}
	if err := verr.errOrNil(); err != nil {
		return err
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		Organization: strings.TrimSpace(in.Organization),
		Country:      strings.TrimSpace(in.Country),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         domain.StoredRoleRegistered,
	}
	if err := s.accounts.Create(account); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			// The unique constraint is the only arbiter of existence; a
			// pre-check would race and leak the same information.
			observability.RecordAuthFlow(ctx, "signup", "duplicate")
			return nil
		}
		return fmt.Errorf("create account: %w", err)
	}
	observability.RecordAuthFlow(ctx, "signup", "created")

	s.sendVerificationLink(ctx, account)
	return nil
}

// VerifyEmail redeems a verification token: sets the account's verified
// timestamp and consumes the token. The stored role is untouched; role
// elevation is an explicit admin action. Redemption is single-use; the loser
// of a concurrent redemption race gets ErrInvalidToken.
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) (*domain.Account, error) {
	token, err := s.redeemableToken(ctx, rawToken, domain.TokenPurposeEmailVerify)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByEmail(token.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			observability.RecordTokenRedemption(ctx, token.Purpose, "orphaned")
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if err := s.tokens.Consume(token.ID); err != nil {
		if errors.Is(err, repository.ErrVerificationTokenNotFound) {
			observability.RecordTokenRedemption(ctx, token.Purpose, "already_used")
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	now := time.Now()
	if err := s.accounts.MarkEmailVerified(account.ID, now); err != nil {
		return nil, fmt.Errorf("mark email verified: %w", err)
	}
	if account.EmailVerified == nil {
		account.EmailVerified = &now
	}

	observability.RecordTokenRedemption(ctx, token.Purpose, "redeemed")
	observability.RecordAuthFlow(ctx, "verify_email", "verified")
	return account, nil
}

// ResendVerification issues a fresh verification link, superseding any live
// one. Unknown and already-verified emails report the same generic success.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		verr := newValidationError()
		verr.add("email", "a valid email address is required")
		return verr
	}

	account, err := s.accounts.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			observability.RecordAuthFlow(ctx, "resend_verification", "unknown_email")
			return nil
		}
		return err
	}
	if account.EmailVerified != nil {
		observability.RecordAuthFlow(ctx, "resend_verification", "already_verified")
		return nil
	}

	observability.RecordAuthFlow(ctx, "resend_verification", "issued")
	s.sendVerificationLink(ctx, account)
	return nil
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	Account *domain.Account
	Session *IssuedSession
}

// Login authenticates credentials and issues a session. Unknown email and
// wrong password collapse into the one ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in LoginInput, userAgent, ip string) (*LoginResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		observability.RecordAuthLogin(ctx, "invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			// Burn a hash so a miss costs the same as a mismatch.
			_, _ = security.HashPassword(in.Password)
			observability.RecordAuthLogin(ctx, "invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := security.VerifyPassword(account.PasswordHash, in.Password)
	if err != nil || !ok {
		observability.RecordAuthLogin(ctx, "invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	if s.requireVerifiedEmail && account.EmailVerified == nil {
		observability.RecordAuthLogin(ctx, "email_not_verified")
		return nil, ErrEmailNotVerified
	}

	session, err := s.sessions.Issue(ctx, account, userAgent, ip)
	if err != nil {
		return nil, err
	}
	observability.RecordAuthLogin(ctx, "success")
	return &LoginResult{Account: account, Session: session}, nil
}

func (s *AuthService) Logout(ctx context.Context, rawSessionToken string) error {
	if rawSessionToken == "" {
		return nil
	}
	observability.RecordAuthFlow(ctx, "logout", "revoked")
	return s.sessions.Revoke(ctx, rawSessionToken)
}

// ForgotPassword issues a reset link. Unknown emails report the same generic
// success as known ones.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		verr := newValidationError()
		verr.add("email", "a valid email address is required")
		return verr
	}

	account, err := s.accounts.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			observability.RecordAuthFlow(ctx, "forgot_password", "unknown_email")
			return nil
		}
		return err
	}

	raw, expiresAt, err := s.issueToken(ctx, account.Email, domain.TokenPurposePasswordReset)
	if err != nil {
		return err
	}
	observability.RecordAuthFlow(ctx, "forgot_password", "issued")

	notification := PasswordResetNotification{
		Email:     account.Email,
		Name:      account.Name,
		Token:     raw,
		ExpiresAt: expiresAt,
		ResetURL:  fmt.Sprintf("%s/reset-password?token=%s", s.portalBaseURL, raw),
	}
	if err := s.notifier.SendPasswordReset(ctx, notification); err != nil {
		s.logger.ErrorContext(ctx, "password reset mail failed", "error", err)
	}
	return nil
}

// ResetPassword redeems a reset token, replaces the password, and revokes
// every live session for the account.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		verr := newValidationError()
		verr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		return verr
	}

	token, err := s.redeemableToken(ctx, rawToken, domain.TokenPurposePasswordReset)
	if err != nil {
		return err
	}

	account, err := s.accounts.FindByEmail(token.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			observability.RecordTokenRedemption(ctx, token.Purpose, "orphaned")
			return ErrAccountNotFound
		}
		return err
	}

	if err := s.tokens.Consume(token.ID); err != nil {
		if errors.Is(err, repository.ErrVerificationTokenNotFound) {
			observability.RecordTokenRedemption(ctx, token.Purpose, "already_used")
			return ErrInvalidToken
		}
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.accounts.UpdatePassword(account.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.sessions.RevokeAllForAccount(ctx, account.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	observability.RecordTokenRedemption(ctx, token.Purpose, "redeemed")
	observability.RecordAuthFlow(ctx, "reset_password", "reset")
	return nil
}

// CleanupExpiredTokens removes lifecycle tokens past their expiry. Run
// periodically by the janitor; expiry is also enforced at redemption, so
// this only bounds table growth.
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(time.Now())
}

// redeemableToken looks up a live token by raw value. Expired tokens are
// deleted the moment redemption discovers them.
func (s *AuthService) redeemableToken(ctx context.Context, rawToken, purpose string) (*domain.VerificationToken, error) {
	if rawToken == "" {
		observability.RecordTokenRedemption(ctx, purpose, "invalid")
		return nil, ErrInvalidToken
	}
	token, err := s.tokens.FindByHash(security.HashToken(rawToken), purpose)
	if err != nil {
		if errors.Is(err, repository.ErrVerificationTokenNotFound) {
			observability.RecordTokenRedemption(ctx, purpose, "invalid")
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if time.Now().After(token.ExpiresAt) {
		if err := s.tokens.Consume(token.ID); err != nil && !errors.Is(err, repository.ErrVerificationTokenNotFound) {
			return nil, err
		}
		observability.RecordTokenRedemption(ctx, purpose, "expired")
		return nil, ErrExpiredToken
	}
	return token, nil
}

// issueToken mints a raw token and stores only its hash, replacing any live
// token for the same (email, purpose).
func (s *AuthService) issueToken(ctx context.Context, email, purpose string) (string, time.Time, error) {
	raw, err := security.NewRandomString(32)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token: %w", err)
	}
	expiresAt := time.Now().Add(s.tokenTTL)
	token := &domain.VerificationToken{
		Email:     email,
		TokenHash: security.HashToken(raw),
		Purpose:   purpose,
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.Replace(token); err != nil {
		return "", time.Time{}, fmt.Errorf("store token: %w", err)
	}
	return raw, expiresAt, nil
}

func (s *AuthService) sendVerificationLink(ctx context.Context, account *domain.Account) {
	raw, expiresAt, err := s.issueToken(ctx, account.Email, domain.TokenPurposeEmailVerify)
	if err != nil {
		s.logger.ErrorContext(ctx, "verification token issue failed", "error", err)
		return
	}
	notification := VerificationNotification{
		Email:           account.Email,
		Name:            account.Name,
		Token:           raw,
		ExpiresAt:       expiresAt,
		VerificationURL: fmt.Sprintf("%s/verify-email?token=%s", s.portalBaseURL, raw),
	}
	if err := s.notifier.SendEmailVerification(ctx, notification); err != nil {
		s.logger.ErrorContext(ctx, "verification mail failed", "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" || len(email) > 255 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
