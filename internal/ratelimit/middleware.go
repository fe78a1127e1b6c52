package ratelimit

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/kikite/backend-order/internal/common"
)

// New builds a redis-backed rate limit middleware from a rate string like "10-M".
func New(client *redis.Client, rate, prefix string) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse rate %q: %w", rate, err)
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: init store: %w", err)
	}
	instance := limiter.New(store, parsed, limiter.WithTrustForwardHeader(false))
	mw := mhttp.NewMiddleware(instance, mhttp.WithErrorHandler(errorHandler), mhttp.WithLimitReachedHandler(limitReachedHandler))
	return mw.Handler, nil
}

func errorHandler(w http.ResponseWriter, _ *http.Request, _ error) {
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rate limiter unavailable", nil)
}

func limitReachedHandler(w http.ResponseWriter, _ *http.Request) {
	common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
}
