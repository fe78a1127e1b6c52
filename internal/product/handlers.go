package product

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kikite/backend-order/internal/common"
)

// Handler exposes HTTP handlers for the product catalog.
type Handler struct {
	Service *Service
}

// List handles GET /api/v1/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.List(r.Context())
	if err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	if products == nil {
		products = []Product{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": products})
}

// Get handles GET /api/v1/products/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	p, err := h.Service.Get(r.Context(), id)
	if err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}
