package handler

import (
	"encoding/json"
	"net/http"

	"loyalty-rewards-api/internal/service"
	"loyalty-rewards-api/pkg/apierror"
	"loyalty-rewards-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// CatalogueHandler handles the catalogue read path and the admin sync.
type CatalogueHandler struct {
	catalogue *service.CatalogueService
}

// NewCatalogueHandler creates a new catalogue handler.
func NewCatalogueHandler(catalogue *service.CatalogueService) *CatalogueHandler {
	return &CatalogueHandler{catalogue: catalogue}
}

// List handles GET /api/v1/catalogue
func (h *CatalogueHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalogue.List(r.Context())
	if err != nil {
		response.Error(w, apierror.ServiceUnavailable("unable to read the catalogue"))
		return
	}
	response.OK(w, map[string]interface{}{"items": items})
}

// Units handles GET /api/v1/catalogue/{item_id}/units
func (h *CatalogueHandler) Units(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		response.Error(w, apierror.BadRequest("item_id is required"))
		return
	}

	units, err := h.catalogue.UnitsForItem(r.Context(), itemID)
	if err != nil {
		response.Error(w, apierror.ServiceUnavailable("unable to read the catalogue"))
		return
	}
	response.OK(w, map[string]interface{}{"item_id": itemID, "units": units})
}

type syncRequest struct {
	Items []service.CatalogueItemInput `json:"items"`
}

// Sync handles POST /api/v1/admin/catalogue/sync
func (h *CatalogueHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if len(req.Items) == 0 {
		response.Error(w, apierror.ValidationError("items must not be empty"))
		return
	}

	items, units, err := h.catalogue.Sync(r.Context(), req.Items)
	if err != nil {
		response.Error(w, apierror.ServiceUnavailable("catalogue sync failed"))
		return
	}

	response.OK(w, map[string]interface{}{
		"items_synced": items,
		"units_synced": units,
	})
}
