package postal_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kikite/backend-order/internal/postal"
)

func TestReverseResolvesFromBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "139.766084", r.URL.Query().Get("x"))
		_, _ = w.Write([]byte(`{
			"response": {
				"location": [
					{"postal": "100-0005", "prefecture": "東京都", "city": "千代田区", "town": "丸の内"}
				]
			}
		}`))
	}))
	defer srv.Close()

	h := &postal.Handler{
		HeartRails: postal.HeartRailsClient{BaseURL: srv.URL, HTTP: testHTTPClient()},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/postal-codes/reverse",
		strings.NewReader(`{"lon":"139.766084","lat":"35.681382"}`))
	rec := httptest.NewRecorder()
	h.Reverse(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "1000005")
}

func TestReverseRequiresCoordinates(t *testing.T) {
	h := &postal.Handler{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/postal-codes/reverse",
		strings.NewReader(`{"lon":"139.766084"}`))
	rec := httptest.NewRecorder()
	h.Reverse(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/postal-codes/reverse",
		strings.NewReader(`{not json`))
	rec = httptest.NewRecorder()
	h.Reverse(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReverseMapsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response": {"error": "not found"}}`))
	}))
	defer srv.Close()

	h := &postal.Handler{
		HeartRails: postal.HeartRailsClient{BaseURL: srv.URL, HTTP: testHTTPClient()},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/postal-codes/reverse",
		strings.NewReader(`{"lon":"0","lat":"0"}`))
	rec := httptest.NewRecorder()
	h.Reverse(rec, req)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "GEO_LOOKUP_FAILED")
}
