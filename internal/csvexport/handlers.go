package csvexport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kikite/backend-order/internal/common"
	"github.com/kikite/backend-order/internal/obs"
	"github.com/kikite/backend-order/internal/order"
)

// OrderLister loads full orders for a date range.
type OrderLister interface {
	ListWithDetails(ctx context.Context, from, to *time.Time) ([]order.Order, error)
}

// Handler exposes the fulfillment CSV export endpoint.
type Handler struct {
	Orders OrderLister
	Now    func() time.Time
}

type exportRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Export handles POST /api/v1/csv/export. The range is inclusive of both days.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	if req.StartDate == "" || req.EndDate == "" {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "startDate and endDate are required", nil)
		return
	}
	jst := time.FixedZone("JST", 9*60*60)
	from, err := time.ParseInLocation("2006-01-02", req.StartDate, jst)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid startDate", nil)
		return
	}
	to, err := time.ParseInLocation("2006-01-02", req.EndDate, jst)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid endDate", nil)
		return
	}
	end := to.Add(24*time.Hour - time.Millisecond)

	orders, err := h.Orders.ListWithDetails(r.Context(), &from, &end)
	if err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	if len(orders) == 0 {
		common.JSONError(w, http.StatusNotFound, "NO_DATA", "no orders in the requested range", nil)
		return
	}

	operator, _ := common.OperatorFrom(r.Context())

	var buf bytes.Buffer
	rows, err := WriteOrders(&buf, orders, operator)
	if err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	if rows == 0 {
		common.JSONError(w, http.StatusNotFound, "NO_DATA", "no exportable lines in the requested range", nil)
		return
	}

	if obs.CSVExportsTotal != nil {
		obs.CSVExportsTotal.Inc()
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	filename := fmt.Sprintf("orders_%s.csv", now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
