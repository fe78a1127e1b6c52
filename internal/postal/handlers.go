package postal

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/kikite/backend-order/internal/common"
)

// Handler exposes HTTP handlers for postal code resolution and import.
type Handler struct {
	Resolver   *Resolver
	HeartRails HeartRailsClient
	Store      Store
	Queue      *asynq.Client
	BatchSize  int
}

// Lookup handles GET /api/v1/postal-codes/{code}.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	addresses, err := h.Resolver.Lookup(r.Context(), code)
	if err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": addresses})
}

type reverseRequest struct {
	Lon string `json:"lon"`
	Lat string `json:"lat"`
}

// Reverse handles POST /api/v1/postal-codes/reverse.
func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req reverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	lon := strings.TrimSpace(req.Lon)
	lat := strings.TrimSpace(req.Lat)
	if lon == "" || lat == "" {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "lon and lat are required", nil)
		return
	}
	addresses, err := h.HeartRails.Reverse(r.Context(), lon, lat)
	if err != nil {
		common.JSONError(w, http.StatusBadGateway, "GEO_LOOKUP_FAILED", "reverse geocoding failed", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": addresses})
}

// Count handles GET /api/v1/postal-codes/import.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.Count(r.Context())
	if err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]int64{"count": n}})
}

type importRequest struct {
	Addresses []Address `json:"addresses"`
}

// Import handles POST /api/v1/postal-codes/import. Rows are split into
// batches and processed asynchronously by the worker.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	if h.Queue == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "task queue not configured", nil)
		return
	}
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	if len(req.Addresses) == 0 {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "addresses are required", nil)
		return
	}

	batchSize := h.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	enqueued := 0
	for start := 0; start < len(req.Addresses); start += batchSize {
		end := start + batchSize
		if end > len(req.Addresses) {
			end = len(req.Addresses)
		}
		task, err := NewImportTask(req.Addresses[start:end])
		if err != nil {
			common.RenderError(w, err, http.StatusInternalServerError)
			return
		}
		if _, err := h.Queue.EnqueueContext(r.Context(), task); err != nil {
			common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "failed to enqueue import batch", nil)
			return
		}
		enqueued++
	}
	common.JSON(w, http.StatusAccepted, map[string]any{
		"data": map[string]int{
			"rows":    len(req.Addresses),
			"batches": enqueued,
		},
	})
}
