package csvexport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kikite/backend-order/internal/common"
	"github.com/kikite/backend-order/internal/csvexport"
	"github.com/kikite/backend-order/internal/order"
)

type stubOrderLister struct {
	orders   []order.Order
	err      error
	lastFrom *time.Time
	lastTo   *time.Time
}

func (s *stubOrderLister) ListWithDetails(_ context.Context, from, to *time.Time) ([]order.Order, error) {
	s.lastFrom = from
	s.lastTo = to
	return s.orders, s.err
}

func exportRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/csv/export", strings.NewReader(body))
	req = req.WithContext(common.WithOperator(req.Context(), testOperator))
	return req
}

func TestExportWritesAttachment(t *testing.T) {
	lister := &stubOrderLister{orders: []order.Order{sampleOrder()}}
	fixed := time.Date(2025, 11, 2, 9, 15, 30, 0, time.FixedZone("JST", 9*60*60))
	h := &csvexport.Handler{Orders: lister, Now: func() time.Time { return fixed }}

	rec := httptest.NewRecorder()
	h.Export(rec, exportRequest(t, `{"startDate":"2025-11-01","endDate":"2025-11-01"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "orders_20251102_091530.csv")
	require.Contains(t, rec.Body.String(), "TEL-20251101-0001")

	// the range covers the whole end day in JST
	require.NotNil(t, lister.lastFrom)
	require.NotNil(t, lister.lastTo)
	require.Equal(t, 1, lister.lastFrom.Day())
	require.True(t, lister.lastTo.After(*lister.lastFrom))
}

func TestExportRequiresDateRange(t *testing.T) {
	h := &csvexport.Handler{Orders: &stubOrderLister{}}

	rec := httptest.NewRecorder()
	h.Export(rec, exportRequest(t, `{"startDate":"2025-11-01"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Export(rec, exportRequest(t, `{"startDate":"11/01/2025","endDate":"2025-11-01"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportReportsNoData(t *testing.T) {
	h := &csvexport.Handler{Orders: &stubOrderLister{}}

	rec := httptest.NewRecorder()
	h.Export(rec, exportRequest(t, `{"startDate":"2025-11-01","endDate":"2025-11-01"}`))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "NO_DATA")
}

func TestExportReportsNoDataWhenAllLinesExcluded(t *testing.T) {
	excludedOnly := sampleOrder()
	excludedOnly.Details = []order.Detail{{ProductCode: "9999"}}
	h := &csvexport.Handler{Orders: &stubOrderLister{orders: []order.Order{excludedOnly}}}

	rec := httptest.NewRecorder()
	h.Export(rec, exportRequest(t, `{"startDate":"2025-11-01","endDate":"2025-11-01"}`))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
