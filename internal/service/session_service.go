package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cdlite/portal-api/internal/domain"
	"github.com/cdlite/portal-api/internal/observability"
	"github.com/cdlite/portal-api/internal/repository"
	"github.com/cdlite/portal-api/internal/security"
)

// SessionService issues and validates signed session tokens. Every token is
// backed by a session row keyed on its peppered hash, so a password reset or
// logout can revoke credentials that are otherwise still within their JWT
// lifetime.
type SessionService struct {
	sessions repository.SessionRepository
	jwtMgr   *security.JWTManager
	pepper   string
	ttl      time.Duration
}

func NewSessionService(sessions repository.SessionRepository, jwtMgr *security.JWTManager, pepper string, ttl time.Duration) *SessionService {
	return &SessionService{sessions: sessions, jwtMgr: jwtMgr, pepper: pepper, ttl: ttl}
}

type IssuedSession struct {
	SessionToken string
	CSRFToken    string
	ExpiresAt    time.Time
}

func (s *SessionService) Issue(ctx context.Context, account *domain.Account, userAgent, ip string) (*IssuedSession, error) {
	raw, err := s.jwtMgr.SignSessionToken(account.ID, account.Role, account.Name, account.EmailVerified != nil, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	csrf, err := security.NewCSRFToken()
	if err != nil {
		return nil, fmt.Errorf("generate csrf token: %w", err)
	}
	expiresAt := time.Now().Add(s.ttl)
	record := &domain.Session{
		AccountID: account.ID,
		TokenHash: security.HashSessionToken(raw, s.pepper),
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.Create(record); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return &IssuedSession{SessionToken: raw, CSRFToken: csrf, ExpiresAt: expiresAt}, nil
}

// VerifySession checks the token signature and the backing session record.
// A structurally valid JWT whose session row was revoked fails here.
func (s *SessionService) VerifySession(ctx context.Context, raw string) (*security.Claims, error) {
	claims, err := s.jwtMgr.ParseSessionToken(raw)
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	if _, err := s.sessions.FindValidByHash(security.HashSessionToken(raw, s.pepper)); err != nil {
		return nil, fmt.Errorf("session record lookup: %w", err)
	}
	return claims, nil
}

func (s *SessionService) Revoke(ctx context.Context, raw string) error {
	return s.sessions.RevokeByHash(security.HashSessionToken(raw, s.pepper))
}

// RevokeAllForAccount invalidates every live session, used on password reset.
func (s *SessionService) RevokeAllForAccount(ctx context.Context, accountID uint) error {
	return s.sessions.RevokeByAccountID(accountID)
}

// CleanupExpired removes session rows past their expiry. Run periodically by
// the janitor.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	removed, err := s.sessions.CleanupExpired()
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		observability.RecordAuthFlow(ctx, "session_cleanup", "removed")
	}
	return removed, nil
}
