package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/cdlite/portal-api/internal/http/response"
	"github.com/cdlite/portal-api/internal/observability"
	"github.com/cdlite/portal-api/internal/security"
	"github.com/cdlite/portal-api/internal/service"
)

type AuthHandler struct {
	authSvc       *service.AuthService
	cookieMgr     *security.CookieManager
	sessionTTL    time.Duration
	portalBaseURL string
}

func NewAuthHandler(authSvc *service.AuthService, cookieMgr *security.CookieManager, sessionTTL time.Duration, portalBaseURL string) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookieMgr: cookieMgr, sessionTTL: sessionTTL, portalBaseURL: portalBaseURL}
}

type signupRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
}

// Signup responds with the same generic payload whether the email was fresh
// or already registered.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "signup", status, time.Since(start))
	}()

	var req signupRequest
	if !decodeJSON(w, r, &req) {
		status = "failure"
		return
	}
	err := h.authSvc.Signup(r.Context(), service.SignupInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		Organization: req.Organization,
		Country:      req.Country,
		Phone:        req.Phone,
	})
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.signup.rejected")
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.signup.accepted")
	response.JSON(w, r, http.StatusAccepted, map[string]string{
		"status":  "ok",
		"message": "If the address is new to us, a verification link is on its way.",
	})
}

// VerifyEmailRedirect is the GET target of mailed links: it redeems the
// token and sends the browser back to the portal with the outcome in the
// query string.
func (h *AuthHandler) VerifyEmailRedirect(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "verify_email", status, time.Since(start))
	}()

	rawToken := r.URL.Query().Get("token")
	account, err := h.authSvc.VerifyEmail(r.Context(), rawToken)
	if err != nil {
		status = "failure"
		code := "verification_failed"
		switch err {
		case service.ErrInvalidToken:
			code = "invalid_token"
		case service.ErrExpiredToken:
			code = "expired_token"
		case service.ErrAccountNotFound:
			code = "user_not_found"
		}
		observability.Audit(r, "auth.verify_email.failed", "reason", code)
		http.Redirect(w, r, h.portalBaseURL+"/login?error="+url.QueryEscape(code), http.StatusFound)
		return
	}
	observability.Audit(r, "auth.verify_email.success", "account_id", account.ID)
	http.Redirect(w, r, h.portalBaseURL+"/login?verified=true", http.StatusFound)
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

// VerifyEmail is the JSON variant of verification for API clients.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "verify_email", status, time.Since(start))
	}()

	var req verifyEmailRequest
	if !decodeJSON(w, r, &req) {
		status = "failure"
		return
	}
	account, err := h.authSvc.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.verify_email.failed")
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.verify_email.success", "account_id", account.ID)
	response.JSON(w, r, http.StatusOK, map[string]any{"account": accountView(account)})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "resend_verification", status, time.Since(start))
	}()

	var req emailRequest
	if !decodeJSON(w, r, &req) {
		status = "failure"
		return
	}
	if err := h.authSvc.ResendVerification(r.Context(), req.Email); err != nil {
		status = "failure"
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.resend_verification.accepted")
	response.JSON(w, r, http.StatusAccepted, map[string]string{
		"status":  "ok",
		"message": "If that address has an unverified account, a new link is on its way.",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		status = "failure"
		return
	}
	result, err := h.authSvc.Login(r.Context(), service.LoginInput{Email: req.Email, Password: req.Password}, r.UserAgent(), clientIP(r))
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.login.failed")
		writeServiceError(w, r, err)
		return
	}
	h.cookieMgr.SetSessionCookies(w, result.Session.SessionToken, result.Session.CSRFToken, h.sessionTTL)
	observability.Audit(r, "auth.login.success", "account_id", result.Account.ID)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"account":    accountView(result.Account),
		"csrf_token": result.Session.CSRFToken,
		"expires_at": result.Session.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "logout", status, time.Since(start))
	}()

	raw := security.GetCookie(r, security.SessionCookieName)
	if err := h.authSvc.Logout(r.Context(), raw); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "logout failed", nil)
		return
	}
	h.cookieMgr.ClearSessionCookies(w)
	observability.Audit(r, "auth.logout.success")
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "forgot_password", status, time.Since(start))
	}()

	var req emailRequest
	if !decodeJSON(w, r, &req) {
		status = "failure"
		return
	}
	if err := h.authSvc.ForgotPassword(r.Context(), req.Email); err != nil {
		status = "failure"
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.forgot_password.accepted")
	response.JSON(w, r, http.StatusAccepted, map[string]string{
		"status":  "ok",
		"message": "If that address has an account, a reset link is on its way.",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "reset_password", status, time.Since(start))
	}()

	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		status = "failure"
		return
	}
	if err := h.authSvc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		status = "failure"
		observability.Audit(r, "auth.reset_password.failed")
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.reset_password.success")
	response.JSON(w, r, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Password updated. Sign in with your new password.",
	})
}
