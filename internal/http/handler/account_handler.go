package handler

import (
	"net/http"

	"github.com/cdlite/portal-api/internal/http/middleware"
	"github.com/cdlite/portal-api/internal/http/response"
	"github.com/cdlite/portal-api/internal/observability"
	"github.com/cdlite/portal-api/internal/service"
)

type AccountHandler struct {
	accountSvc *service.AccountService
}

func NewAccountHandler(accountSvc *service.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// Me returns the caller's account plus the resolved identity view the portal
// navigation is built from.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	resolved := middleware.IdentityFromContext(r.Context())
	account, err := h.accountSvc.Get(r.Context(), resolved.AccountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"account": accountView(account),
		"identity": map[string]any{
			"status":       string(resolved.Status),
			"role":         resolved.Role.String(),
			"display_name": resolved.DisplayName,
		},
	})
}

type profileUpdateRequest struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
}

func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	resolved := middleware.IdentityFromContext(r.Context())
	var req profileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := h.accountSvc.UpdateProfile(r.Context(), resolved.AccountID, service.ProfileUpdateInput{
		Name:         req.Name,
		Organization: req.Organization,
		Country:      req.Country,
		Phone:        req.Phone,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "account.profile.updated", "account_id", resolved.AccountID)
	response.JSON(w, r, http.StatusOK, map[string]any{"account": accountView(account)})
}
