package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cdlite/portal-api/internal/http/middleware"
	"github.com/cdlite/portal-api/internal/http/response"
	"github.com/cdlite/portal-api/internal/observability"
	"github.com/cdlite/portal-api/internal/service"
)

type RequestHandler struct {
	requestSvc *service.RequestService
}

func NewRequestHandler(requestSvc *service.RequestService) *RequestHandler {
	return &RequestHandler{requestSvc: requestSvc}
}

type createRequestRequest struct {
	DatasetID string `json:"dataset_id"`
	Purpose   string `json:"purpose"`
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	resolved := middleware.IdentityFromContext(r.Context())
	var req createRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := h.requestSvc.Create(r.Context(), resolved.AccountID, service.CreateRequestInput{
		DatasetPublicID: req.DatasetID,
		Purpose:         req.Purpose,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "requests.created", "request_id", created.ID, "account_id", resolved.AccountID)
	response.JSON(w, r, http.StatusCreated, map[string]any{"request": created})
}

func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	resolved := middleware.IdentityFromContext(r.Context())
	res, err := h.requestSvc.ListMine(r.Context(), resolved.AccountID, parsePage(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, pageView(res, res.Items))
}

// ListQueue is the admin review queue, filterable by status.
func (h *RequestHandler) ListQueue(w http.ResponseWriter, r *http.Request) {
	res, err := h.requestSvc.ListByStatus(r.Context(), r.URL.Query().Get("status"), parsePage(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, pageView(res, res.Items))
}

type decideRequestRequest struct {
	Approve bool   `json:"approve"`
	Message string `json:"message"`
}

func (h *RequestHandler) Decide(w http.ResponseWriter, r *http.Request) {
	resolved := middleware.IdentityFromContext(r.Context())
	requestID, err := strconv.ParseUint(chi.URLParam(r, "requestID"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request id", nil)
		return
	}
	var req decideRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	decided, err := h.requestSvc.Decide(r.Context(), resolved.AccountID, uint(requestID), req.Approve, req.Message)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "requests.decided",
		"request_id", decided.ID,
		"status", decided.Status,
		"decided_by", resolved.AccountID,
	)
	response.JSON(w, r, http.StatusOK, map[string]any{"request": decided})
}
