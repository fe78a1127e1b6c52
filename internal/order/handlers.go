package order

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kikite/backend-order/internal/common"
)

// Handler exposes HTTP handlers for order entry.
type Handler struct {
	Service *Service
}

// Create handles POST /api/v1/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	o, err := h.Service.Create(r.Context(), req)
	if err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": o})
}

// Update handles PUT /api/v1/orders/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	o, err := h.Service.Update(r.Context(), id, req)
	if err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// Get handles GET /api/v1/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, err := h.Service.Get(r.Context(), id)
	if err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	filter := ListFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:  perPage,
		Offset: common.Offset(page, perPage),
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filter.From = &t
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			end := t.Add(24*time.Hour - time.Nanosecond)
			filter.To = &end
		}
	}

	orders, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": orders,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Delete handles DELETE /api/v1/orders/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NextNumber handles GET /api/v1/orders/next-number.
func (h *Handler) NextNumber(w http.ResponseWriter, r *http.Request) {
	number, err := h.Service.NextNumber(r.Context())
	if err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"orderNumber": number}})
}

// Preview handles POST /api/v1/orders/preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	breakdown, err := h.Service.Preview(r.Context(), req)
	if err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": breakdown})
}
