package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/cdlite/portal-api/internal/domain"
	"github.com/cdlite/portal-api/internal/http/response"
	"github.com/cdlite/portal-api/internal/identity"
	"github.com/cdlite/portal-api/internal/repository"
	"github.com/cdlite/portal-api/internal/service"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return false
	}
	return true
}

// writeServiceError maps the service error taxonomy onto HTTP responses.
// Anything outside the taxonomy is a 500 with no internal detail leaked.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationError(w, r, verr.Fields)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password", nil)
	case errors.Is(err, service.ErrEmailNotVerified):
		response.Error(w, r, http.StatusForbidden, "EMAIL_NOT_VERIFIED", "email address not verified", nil)
	case errors.Is(err, service.ErrInvalidToken):
		response.Error(w, r, http.StatusBadRequest, "INVALID_TOKEN", "invalid or already used token", nil)
	case errors.Is(err, service.ErrExpiredToken):
		response.Error(w, r, http.StatusBadRequest, "EXPIRED_TOKEN", "token has expired", nil)
	case errors.Is(err, service.ErrAccountNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "account not found", nil)
	case errors.Is(err, service.ErrDatasetNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "dataset not found", nil)
	case errors.Is(err, service.ErrRequestNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "data request not found", nil)
	case errors.Is(err, service.ErrRequestDecided):
		response.Error(w, r, http.StatusConflict, "ALREADY_DECIDED", "data request already decided", nil)
	case errors.Is(err, service.ErrSelfRoleChange):
		response.Error(w, r, http.StatusConflict, "SELF_ROLE_CHANGE", "cannot change own role", nil)
	case errors.Is(err, service.ErrUnknownRole):
		response.Error(w, r, http.StatusBadRequest, "UNKNOWN_ROLE", "unknown role", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}

// accountView is the client-facing shape of an account. Role is exposed in
// its resolved lowercase form, not the stored value.
func accountView(a *domain.Account) map[string]any {
	return map[string]any{
		"id":            a.ID,
		"email":         a.Email,
		"name":          a.Name,
		"organization":  a.Organization,
		"country":       a.Country,
		"phone":         a.Phone,
		"role":          identity.FromStored(a.Role).String(),
		"emailVerified": a.EmailVerified != nil,
		"createdAt":     a.CreatedAt,
	}
}

func parsePage(r *http.Request) repository.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	return repository.PageRequest{Page: page, PageSize: size}
}

func pageView[T any](res repository.PageResult[T], items any) map[string]any {
	return map[string]any{
		"items":       items,
		"page":        res.Page,
		"page_size":   res.PageSize,
		"total":       res.Total,
		"total_pages": res.TotalPages,
	}
}

func clientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	return r.RemoteAddr
}
