package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestAccountLifecycleSignupVerifyLoginLogout(t *testing.T) {
	s := newPortalTestServer(t)

	resp, _ := s.doJSON(t, http.MethodGet, "/api/v1/me", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("guest /me should be 401, got %d", resp.StatusCode)
	}

	s.signup(t, "lifecycle@example.org", "correct horse battery")
	s.verifyEmail(t)
	s.login(t, "lifecycle@example.org", "correct horse battery")

	resp, body := s.doJSON(t, http.MethodGet, "/api/v1/me", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/me after login: status=%d body=%s", resp.StatusCode, body)
	}
	if !strings.Contains(body, `"emailVerified":true`) {
		t.Fatalf("expected verified flag in /me: %s", body)
	}
	if !strings.Contains(body, `"role":"registered"`) {
		t.Fatalf("verification must not change the role: %s", body)
	}

	// Logout needs the double-submit header.
	resp, body = s.doJSON(t, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("logout without csrf header should be 403, got %d: %s", resp.StatusCode, body)
	}

	csrf := s.cookieValue(t, "csrf_token")
	resp, body = s.doJSON(t, http.MethodPost, "/api/v1/auth/logout", nil, map[string]string{"X-CSRF-Token": csrf})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: status=%d body=%s", resp.StatusCode, body)
	}

	resp, _ = s.doJSON(t, http.MethodGet, "/api/v1/me", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("/me after logout should be 401, got %d", resp.StatusCode)
	}
}

func TestLoginBlockedUntilVerifiedWhenRequired(t *testing.T) {
	s := newPortalTestServerWithOptions(t, portalTestOptions{requireVerifiedEmail: true})

	s.signup(t, "strict@example.org", "correct horse battery")

	resp, body := s.doJSON(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "strict@example.org",
		"password": "correct horse battery",
	}, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("unverified login should be 403, got %d: %s", resp.StatusCode, body)
	}
	if code := s.errorCode(t, body); code != "EMAIL_NOT_VERIFIED" {
		t.Fatalf("expected EMAIL_NOT_VERIFIED, got %q", code)
	}

	s.verifyEmail(t)
	s.login(t, "strict@example.org", "correct horse battery")
}

func TestRevokedSessionTokenIsDead(t *testing.T) {
	s := newPortalTestServer(t)

	s.signup(t, "revoked@example.org", "correct horse battery")
	s.login(t, "revoked@example.org", "correct horse battery")
	session := s.cookieValue(t, "session_token")
	csrf := s.cookieValue(t, "csrf_token")

	resp, _ := s.doJSON(t, http.MethodPost, "/api/v1/auth/logout", nil, map[string]string{"X-CSRF-Token": csrf})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: status=%d", resp.StatusCode)
	}

	// Replaying the revoked token as a bearer credential fails even though
	// the JWT itself has not expired.
	resp, _ = s.doJSON(t, http.MethodGet, "/api/v1/me", nil, map[string]string{
		"Authorization": "Bearer " + session,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("revoked bearer token should be 401, got %d", resp.StatusCode)
	}
}
