package settings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kikite/backend-order/internal/cache"
	"github.com/kikite/backend-order/internal/calc"
	"github.com/kikite/backend-order/internal/common"
)

// Setting keys understood by the application.
const (
	KeyDefaultShippingFee    = "default_shipping_fee"
	KeyFreeShippingThreshold = "free_shipping_threshold"
	KeyEarlyPriceDeadline    = "early_price_deadline"
)

// Fallback values used when the database has no row for a key.
const (
	DefaultShippingFee           = calc.Money(880)
	DefaultFreeShippingThreshold = calc.Money(5000)
)

// DefaultEarlyPriceDeadline is used when no deadline is configured.
var DefaultEarlyPriceDeadline = time.Date(2025, 11, 28, 23, 59, 59, 0, time.FixedZone("JST", 9*60*60))

const cacheKey = "settings:all"

var allowedKeys = map[string]struct{}{
	KeyDefaultShippingFee:    {},
	KeyFreeShippingThreshold: {},
	KeyEarlyPriceDeadline:    {},
}

// Querier abstracts setting persistence.
type Querier interface {
	GetAll(ctx context.Context) (map[string]string, error)
	Get(ctx context.Context, key string) (string, error)
	Upsert(ctx context.Context, key, value string) error
}

// Service exposes typed accessors over the settings store with a Redis cache.
type Service struct {
	Q     Querier
	Cache cache.Cache
	TTL   time.Duration
}

// All returns every setting, served from cache when possible.
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	var cached map[string]string
	if err := s.Cache.GetJSON(ctx, cacheKey, &cached); err == nil && cached != nil {
		return cached, nil
	}
	values, err := s.Q.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("settings: load: %w", err)
	}
	_ = s.Cache.SetJSON(ctx, cacheKey, values, s.TTL)
	return values, nil
}

// Update writes an allow-listed setting and invalidates the cache.
func (s *Service) Update(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if _, ok := allowedKeys[key]; !ok {
		return common.NewAppError("UNKNOWN_SETTING", fmt.Sprintf("setting %q is not recognized", key), http.StatusBadRequest, nil)
	}
	value = strings.TrimSpace(value)
	switch key {
	case KeyDefaultShippingFee, KeyFreeShippingThreshold:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return common.NewAppError("VALIDATION_ERROR", "value must be a non-negative integer", http.StatusBadRequest, err)
		}
	case KeyEarlyPriceDeadline:
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			return common.NewAppError("VALIDATION_ERROR", "value must be an RFC3339 timestamp", http.StatusBadRequest, err)
		}
	}
	if err := s.Q.Upsert(ctx, key, value); err != nil {
		return fmt.Errorf("settings: upsert %s: %w", key, err)
	}
	_ = s.Cache.Invalidate(ctx, cacheKey)
	return nil
}

// DefaultShippingFeeValue resolves the configured default shipping fee.
func (s *Service) DefaultShippingFeeValue(ctx context.Context) (calc.Money, error) {
	return s.moneySetting(ctx, KeyDefaultShippingFee, DefaultShippingFee)
}

// FreeShippingThresholdValue resolves the configured free shipping threshold.
func (s *Service) FreeShippingThresholdValue(ctx context.Context) (calc.Money, error) {
	return s.moneySetting(ctx, KeyFreeShippingThreshold, DefaultFreeShippingThreshold)
}

// EarlyPriceDeadlineValue resolves the configured early price deadline.
func (s *Service) EarlyPriceDeadlineValue(ctx context.Context) (time.Time, error) {
	values, err := s.All(ctx)
	if err != nil {
		return time.Time{}, err
	}
	raw, ok := values[KeyEarlyPriceDeadline]
	if !ok || strings.TrimSpace(raw) == "" {
		return DefaultEarlyPriceDeadline, nil
	}
	deadline, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return DefaultEarlyPriceDeadline, nil
	}
	return deadline, nil
}

func (s *Service) moneySetting(ctx context.Context, key string, fallback calc.Money) (calc.Money, error) {
	values, err := s.All(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fallback, nil
		}
		return 0, err
	}
	raw, ok := values[key]
	if !ok {
		return fallback, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return fallback, nil
	}
	return calc.Money(n), nil
}
