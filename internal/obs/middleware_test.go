package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/kikite/backend-order/internal/obs"
)

func TestInstrumentLabelsByRoutePattern(t *testing.T) {
	metrics := obs.NewHTTPMetrics(prometheus.NewRegistry(), nil)

	r := chi.NewRouter()
	r.Use(obs.Instrument(metrics))
	r.Get("/api/v1/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/0e4c5b3a-aaaa-bbbb-cccc-000000000001", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// the metric label is the pattern, not the raw path with the id in it
	count := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/api/v1/orders/{id}", "200"))
	require.Equal(t, 1.0, count)
}

func TestInstrumentRecordsErrorStatus(t *testing.T) {
	metrics := obs.NewHTTPMetrics(prometheus.NewRegistry(), nil)

	r := chi.NewRouter()
	r.Use(obs.Instrument(metrics))
	r.Post("/api/v1/orders", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))

	count := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodPost, "/api/v1/orders", "400"))
	require.Equal(t, 1.0, count)
}

func TestInstrumentWithoutMetricsPassesThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(obs.Instrument(nil))
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}
