package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cdlite/portal-api/internal/http/middleware"
	"github.com/cdlite/portal-api/internal/http/response"
	"github.com/cdlite/portal-api/internal/observability"
	"github.com/cdlite/portal-api/internal/service"
)

type AdminHandler struct {
	accountSvc *service.AccountService
}

func NewAdminHandler(accountSvc *service.AccountService) *AdminHandler {
	return &AdminHandler{accountSvc: accountSvc}
}

func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	res, err := h.accountSvc.List(r.Context(), parsePage(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items := make([]map[string]any, 0, len(res.Items))
	for i := range res.Items {
		items = append(items, accountView(&res.Items[i]))
	}
	response.JSON(w, r, http.StatusOK, pageView(res, items))
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	resolved := middleware.IdentityFromContext(r.Context())
	targetID, err := strconv.ParseUint(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid account id", nil)
		return
	}
	var req setRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := h.accountSvc.SetRole(r.Context(), resolved.AccountID, uint(targetID), strings.ToUpper(strings.TrimSpace(req.Role)))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "admin.role.changed",
		"target_id", account.ID,
		"role", account.Role,
		"actor_id", resolved.AccountID,
	)
	response.JSON(w, r, http.StatusOK, map[string]any{"account": accountView(account)})
}
