package resilience_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kikite/backend-order/internal/resilience"
)

func TestBreakerOpensOnFailureRatio(t *testing.T) {
	ctx := context.Background()
	b := resilience.NewBreaker(4, 0.5, time.Hour)

	for i := 0; i < 2; i++ {
		require.True(t, b.Allow(ctx))
		b.Report(ctx, true)
	}
	for i := 0; i < 2; i++ {
		require.True(t, b.Allow(ctx))
		b.Report(ctx, false)
	}

	require.False(t, b.Allow(ctx))
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	ctx := context.Background()
	b := resilience.NewBreaker(1, 0.5, 10*time.Millisecond)

	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.False(t, b.Allow(ctx))

	time.Sleep(20 * time.Millisecond)

	// cool-off elapsed: one probe is let through
	require.True(t, b.Allow(ctx))
	b.Report(ctx, true)
	require.True(t, b.Allow(ctx))
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	ctx := context.Background()
	b := resilience.NewBreaker(1, 0.5, 10*time.Millisecond)

	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	time.Sleep(20 * time.Millisecond)

	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.False(t, b.Allow(ctx))
}

func TestBackoffGrowsExponentially(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, resilience.Backoff(base, 1, 0))
	require.Equal(t, 2*base, resilience.Backoff(base, 2, 0))
	require.Equal(t, 4*base, resilience.Backoff(base, 3, 0))
}

func TestHTTPClientRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cl := resilience.HTTPClient{
		Client:      srv.Client(),
		Breaker:     resilience.NewBreaker(10, 0.9, time.Hour),
		BaseBackoff: time.Millisecond,
		MaxAttempts: 3,
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := cl.Do(context.Background(), req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(2), calls.Load())
}

func TestHTTPClientReturnsErrOpenCircuit(t *testing.T) {
	cl := resilience.HTTPClient{
		Client:  &http.Client{},
		Breaker: openBreaker(t),
	}

	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	require.NoError(t, err)
	_, err = cl.Do(context.Background(), req)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
}

func TestHTTPClientUsesFallback(t *testing.T) {
	fallbackUsed := false
	cl := resilience.HTTPClient{
		Client:  &http.Client{},
		Breaker: openBreaker(t),
		Fallback: func(_ context.Context, _ *http.Request, err error) (*http.Response, error) {
			fallbackUsed = true
			require.ErrorIs(t, err, resilience.ErrOpenCircuit)
			rec := httptest.NewRecorder()
			rec.WriteHeader(http.StatusServiceUnavailable)
			return rec.Result(), nil
		},
	}

	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	require.NoError(t, err)
	resp, err := cl.Do(context.Background(), req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.True(t, fallbackUsed)
}

func openBreaker(t *testing.T) *resilience.Breaker {
	t.Helper()
	ctx := context.Background()
	b := resilience.NewBreaker(1, 0.5, time.Hour)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	return b
}
