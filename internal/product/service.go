package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kikite/backend-order/internal/cache"
	"github.com/kikite/backend-order/internal/calc"
	"github.com/kikite/backend-order/internal/common"
)

const listCacheKey = "products:active"

// Querier abstracts product persistence.
type Querier interface {
	ListActive(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (Product, error)
	GetByCode(ctx context.Context, code string) (Product, error)
}

// Service serves the product catalog with a Redis read cache.
type Service struct {
	Q     Querier
	Cache cache.Cache
	TTL   time.Duration
}

// List returns active products, served from cache when possible.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	var cached []Product
	if err := s.Cache.GetJSON(ctx, listCacheKey, &cached); err == nil && cached != nil {
		return cached, nil
	}
	products, err := s.Q.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("product: list: %w", err)
	}
	_ = s.Cache.SetJSON(ctx, listCacheKey, products, s.TTL)
	return products, nil
}

// Get fetches one product by identifier.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := s.Q.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, common.NewAppError("PRODUCT_NOT_FOUND", "product not found", http.StatusNotFound, err)
	}
	if err != nil {
		return Product{}, fmt.Errorf("product: get %s: %w", id, err)
	}
	return p, nil
}

// GetByCode fetches one product by catalog code.
func (s *Service) GetByCode(ctx context.Context, code string) (Product, error) {
	p, err := s.Q.GetByCode(ctx, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, common.NewAppError("PRODUCT_NOT_FOUND", "product not found", http.StatusNotFound, err)
	}
	if err != nil {
		return Product{}, fmt.Errorf("product: get code %s: %w", code, err)
	}
	return p, nil
}

// EffectivePrice returns the unit price applicable at the given instant.
// Early prices apply until the configured deadline, inclusive.
func EffectivePrice(p Product, now, earlyDeadline time.Time) calc.Money {
	if p.EarlyPrice != nil && !now.After(earlyDeadline) {
		return *p.EarlyPrice
	}
	return p.Price
}
