package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cdlite/portal-api/internal/database"
	"github.com/cdlite/portal-api/internal/domain"
	"github.com/cdlite/portal-api/internal/http/handler"
	"github.com/cdlite/portal-api/internal/http/router"
	"github.com/cdlite/portal-api/internal/repository"
	"github.com/cdlite/portal-api/internal/security"
	"github.com/cdlite/portal-api/internal/service"
)

type errorEnvelope struct {
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type mailCapture struct {
	mu     sync.Mutex
	verify string
	reset  string
}

func (m *mailCapture) SendEmailVerification(_ context.Context, n service.VerificationNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verify = n.Token
	return nil
}

func (m *mailCapture) SendPasswordReset(_ context.Context, n service.PasswordResetNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset = n.Token
	return nil
}

func (m *mailCapture) LastVerificationToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verify
}

func (m *mailCapture) LastResetToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reset
}

type portalTestServer struct {
	baseURL string
	client  *http.Client
	db      *gorm.DB
	mail    *mailCapture
}

type portalTestOptions struct {
	requireVerifiedEmail bool
	forgotRateLimitRPM   int
}

func newPortalTestServer(t *testing.T) *portalTestServer {
	return newPortalTestServerWithOptions(t, portalTestOptions{})
}

func newPortalTestServerWithOptions(t *testing.T, opts portalTestOptions) *portalTestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	accounts := repository.NewAccountRepository(db)
	tokens := repository.NewVerificationTokenRepository(db)
	datasets := repository.NewDatasetRepository(db)
	requests := repository.NewDataRequestRepository(db)

	jwtMgr := security.NewJWTManager("cdlite-portal-api", "cdlite-portal", "0123456789abcdef0123456789abcdef")
	sessions := service.NewSessionService(repository.NewSessionRepository(db), jwtMgr, "test-pepper", time.Hour)
	mail := &mailCapture{}
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := service.NewAuthService(accounts, tokens, sessions, mail, discard,
		"https://portal.cdlite.org", time.Hour, opts.requireVerifiedEmail)
	accountSvc := service.NewAccountService(accounts, sessions)
	catalogSvc := service.NewCatalogService(datasets)
	requestSvc := service.NewRequestService(requests, datasets)

	cookieMgr := security.NewCookieManager("", false, "lax")

	forgotRPM := opts.forgotRateLimitRPM
	if forgotRPM == 0 {
		forgotRPM = 100
	}
	mux := router.NewRouter(router.Dependencies{
		AuthHandler:        handler.NewAuthHandler(authSvc, cookieMgr, time.Hour, "https://portal.cdlite.org"),
		AccountHandler:     handler.NewAccountHandler(accountSvc),
		CatalogHandler:     handler.NewCatalogHandler(catalogSvc),
		RequestHandler:     handler.NewRequestHandler(requestSvc),
		AdminHandler:       handler.NewAdminHandler(accountSvc),
		SessionVerifier:    sessions,
		CORSOrigins:        []string{"https://portal.cdlite.org"},
		AuthRateLimitRPM:   1000,
		ForgotRateLimitRPM: forgotRPM,
		APIRateLimitRPM:    10000,
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &portalTestServer{baseURL: srv.URL, client: client, db: db, mail: mail}
}

func (s *portalTestServer) doJSON(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(raw)
}

func (s *portalTestServer) errorCode(t *testing.T, body string) string {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil || env.Error == nil {
		t.Fatalf("expected error envelope, got %q", body)
	}
	return env.Error.Code
}

func (s *portalTestServer) cookieValue(t *testing.T, name string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.baseURL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for _, c := range s.client.Jar.Cookies(req.URL) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (s *portalTestServer) signup(t *testing.T, email, password string) {
	t.Helper()
	resp, body := s.doJSON(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"email":    email,
		"password": password,
		"name":     "Integration User",
	}, nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("signup: status=%d body=%s", resp.StatusCode, body)
	}
}

func (s *portalTestServer) verifyEmail(t *testing.T) {
	t.Helper()
	token := s.mail.LastVerificationToken()
	if token == "" {
		t.Fatal("no verification token captured")
	}
	resp, _ := s.doJSON(t, http.MethodGet, "/api/v1/auth/verify-email?token="+token, nil, nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("verify redirect: status=%d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://portal.cdlite.org/login?verified=true" {
		t.Fatalf("unexpected redirect %q", loc)
	}
}

func (s *portalTestServer) login(t *testing.T, email, password string) {
	t.Helper()
	resp, body := s.doJSON(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status=%d body=%s", resp.StatusCode, body)
	}
}

// promoteToAdmin flips the stored role directly; role management through the
// API is covered by the rbac tests, which need an admin to exist first.
func (s *portalTestServer) promoteToAdmin(t *testing.T, email string) {
	t.Helper()
	res := s.db.Model(&domain.Account{}).Where("email = ?", email).Update("role", domain.StoredRoleAdmin)
	if res.Error != nil || res.RowsAffected != 1 {
		t.Fatalf("promote %s: err=%v rows=%d", email, res.Error, res.RowsAffected)
	}
}
