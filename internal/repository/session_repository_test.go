package repository

import (
	"testing"
	"time"

	"github.com/cdlite/portal-api/internal/domain"
)

func newSession(accountID uint, hash string, ttl time.Duration) *domain.Session {
	return &domain.Session{
		AccountID: accountID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(ttl),
	}
}

func TestFindValidByHashExcludesRevokedAndExpired(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))

	for _, s := range []*domain.Session{
		newSession(1, "hash-live", time.Hour),
		newSession(1, "hash-expired", -time.Minute),
		newSession(1, "hash-revoked", time.Hour),
	} {
		if err := repo.Create(s); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := repo.RevokeByHash("hash-revoked"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := repo.FindValidByHash("hash-live"); err != nil {
		t.Fatalf("live session should resolve: %v", err)
	}
	if _, err := repo.FindValidByHash("hash-expired"); err == nil {
		t.Fatal("expired session must not resolve")
	}
	if _, err := repo.FindValidByHash("hash-revoked"); err == nil {
		t.Fatal("revoked session must not resolve")
	}
}

func TestRevokeByAccountID(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))

	if err := repo.Create(newSession(1, "hash-a", time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(newSession(1, "hash-b", time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(newSession(2, "hash-other", time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.RevokeByAccountID(1); err != nil {
		t.Fatalf("revoke all: %v", err)
	}

	if _, err := repo.FindValidByHash("hash-a"); err == nil {
		t.Fatal("account 1 session must be revoked")
	}
	if _, err := repo.FindValidByHash("hash-b"); err == nil {
		t.Fatal("account 1 session must be revoked")
	}
	if _, err := repo.FindValidByHash("hash-other"); err != nil {
		t.Fatalf("other account's session must survive: %v", err)
	}
}

func TestSessionCleanupExpired(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))

	if err := repo.Create(newSession(1, "hash-old", -time.Minute)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(newSession(1, "hash-live", time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}

	removed, err := repo.CleanupExpired()
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 expired session removed, got %d", removed)
	}
	if _, err := repo.FindValidByHash("hash-live"); err != nil {
		t.Fatalf("live session must survive cleanup: %v", err)
	}
}
