package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cdlite/portal-api/internal/domain"
	"github.com/cdlite/portal-api/internal/repository"
	"github.com/cdlite/portal-api/internal/security"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.Account{},
		&domain.VerificationToken{},
		&domain.Session{},
		&domain.Dataset{},
		&domain.DownloadGrant{},
		&domain.DataRequest{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// captureNotifier records lifecycle notifications instead of delivering them,
// so tests can read the raw tokens out of the "mail".
type captureNotifier struct {
	verifications []VerificationNotification
	resets        []PasswordResetNotification
}

func (n *captureNotifier) SendEmailVerification(ctx context.Context, notification VerificationNotification) error {
	n.verifications = append(n.verifications, notification)
	return nil
}

func (n *captureNotifier) SendPasswordReset(ctx context.Context, notification PasswordResetNotification) error {
	n.resets = append(n.resets, notification)
	return nil
}

func (n *captureNotifier) lastVerificationToken(t *testing.T) string {
	t.Helper()
	if len(n.verifications) == 0 {
		t.Fatal("no verification mail captured")
	}
	return n.verifications[len(n.verifications)-1].Token
}

func (n *captureNotifier) lastResetToken(t *testing.T) string {
	t.Helper()
	if len(n.resets) == 0 {
		t.Fatal("no reset mail captured")
	}
	return n.resets[len(n.resets)-1].Token
}

type authTestEnv struct {
	db       *gorm.DB
	accounts repository.AccountRepository
	tokens   repository.VerificationTokenRepository
	sessions *SessionService
	notifier *captureNotifier
	auth     *AuthService
}

type authTestOptions struct {
	tokenTTL             time.Duration
	requireVerifiedEmail bool
}

func newAuthTestEnv(t *testing.T, opts authTestOptions) *authTestEnv {
	t.Helper()
	if opts.tokenTTL == 0 {
		opts.tokenTTL = time.Hour
	}
	db := newTestDB(t)
	accounts := repository.NewAccountRepository(db)
	tokens := repository.NewVerificationTokenRepository(db)
	jwtMgr := security.NewJWTManager("cdlite-portal-api", "cdlite-portal", "0123456789abcdef0123456789abcdef")
	sessions := NewSessionService(repository.NewSessionRepository(db), jwtMgr, "test-pepper", time.Hour)
	notifier := &captureNotifier{}
	auth := NewAuthService(
		accounts,
		tokens,
		sessions,
		notifier,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		"https://portal.cdlite.org",
		opts.tokenTTL,
		opts.requireVerifiedEmail,
	)
	return &authTestEnv{db: db, accounts: accounts, tokens: tokens, sessions: sessions, notifier: notifier, auth: auth}
}

func (env *authTestEnv) signup(t *testing.T, email, password string) {
	t.Helper()
	err := env.auth.Signup(context.Background(), SignupInput{
		Email:    email,
		Password: password,
		Name:     "Test User",
	})
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
}
