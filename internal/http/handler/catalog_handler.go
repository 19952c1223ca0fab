package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cdlite/portal-api/internal/domain"
	"github.com/cdlite/portal-api/internal/http/middleware"
	"github.com/cdlite/portal-api/internal/http/response"
	"github.com/cdlite/portal-api/internal/observability"
	"github.com/cdlite/portal-api/internal/repository"
	"github.com/cdlite/portal-api/internal/service"
)

type CatalogHandler struct {
	catalogSvc *service.CatalogService
}

func NewCatalogHandler(catalogSvc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.DatasetFilter{
		Category: r.URL.Query().Get("category"),
		Region:   r.URL.Query().Get("region"),
	}
	res, err := h.catalogSvc.List(r.Context(), filter, parsePage(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items := make([]map[string]any, 0, len(res.Items))
	for i := range res.Items {
		items = append(items, datasetView(&res.Items[i]))
	}
	response.JSON(w, r, http.StatusOK, pageView(res, items))
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.catalogSvc.Get(r.Context(), chi.URLParam(r, "publicID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"dataset": datasetView(dataset)})
}

type createDatasetRequest struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Category  string `json:"category"`
	Region    string `json:"region"`
	Format    string `json:"format"`
	SourceURL string `json:"source_url"`
}

func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDatasetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dataset, err := h.catalogSvc.Create(r.Context(), service.CreateDatasetInput{
		Title:     req.Title,
		Summary:   req.Summary,
		Category:  req.Category,
		Region:    req.Region,
		Format:    req.Format,
		SourceURL: req.SourceURL,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "catalog.dataset.created", "dataset_id", dataset.PublicID)
	response.JSON(w, r, http.StatusCreated, map[string]any{"dataset": datasetView(dataset)})
}

// Download issues a recorded grant and returns the source location. Route
// level gatekeeping decides who gets here.
func (h *CatalogHandler) Download(w http.ResponseWriter, r *http.Request) {
	resolved := middleware.IdentityFromContext(r.Context())
	grant, err := h.catalogSvc.GrantDownload(r.Context(), resolved.AccountID, chi.URLParam(r, "publicID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "catalog.dataset.download_granted",
		"dataset_id", grant.Dataset.PublicID,
		"grant_id", grant.GrantID,
		"account_id", resolved.AccountID,
	)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"grant_id":   grant.GrantID,
		"dataset":    datasetView(grant.Dataset),
		"source_url": grant.SourceURL,
	})
}

func datasetView(d *domain.Dataset) map[string]any {
	return map[string]any{
		"id":         d.PublicID,
		"title":      d.Title,
		"summary":    d.Summary,
		"category":   d.Category,
		"region":     d.Region,
		"format":     d.Format,
		"updated_at": d.UpdatedAt,
	}
}
