package settings

import (
	"encoding/json"
	"net/http"

	"github.com/kikite/backend-order/internal/common"
)

// Handler exposes HTTP handlers for application settings.
type Handler struct {
	Service *Service
}

// List handles GET /api/v1/settings.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	values, err := h.Service.All(r.Context())
	if err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": values})
}

type updateRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Update handles PUT /api/v1/settings.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	if err := h.Service.Update(r.Context(), req.Key, req.Value); err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{req.Key: req.Value}})
}
