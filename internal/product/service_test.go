package product_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/kikite/backend-order/internal/cache"
	"github.com/kikite/backend-order/internal/calc"
	"github.com/kikite/backend-order/internal/common"
	"github.com/kikite/backend-order/internal/product"
)

type stubCatalog struct {
	products  []product.Product
	listCalls int
}

func (s *stubCatalog) ListActive(context.Context) ([]product.Product, error) {
	s.listCalls++
	return s.products, nil
}

func (s *stubCatalog) GetByID(_ context.Context, id uuid.UUID) (product.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return product.Product{}, pgx.ErrNoRows
}

func (s *stubCatalog) GetByCode(_ context.Context, code string) (product.Product, error) {
	for _, p := range s.products {
		if p.Code == code {
			return p, nil
		}
	}
	return product.Product{}, pgx.ErrNoRows
}

func TestEffectivePriceDeadlineIsInclusive(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	deadline := time.Date(2025, 11, 28, 23, 59, 59, 0, jst)
	early := calc.Money(980)
	p := product.Product{Price: 1500, EarlyPrice: &early}

	require.Equal(t, calc.Money(980), product.EffectivePrice(p, deadline.Add(-time.Hour), deadline))
	require.Equal(t, calc.Money(980), product.EffectivePrice(p, deadline, deadline))
	require.Equal(t, calc.Money(1500), product.EffectivePrice(p, deadline.Add(time.Second), deadline))
}

func TestEffectivePriceWithoutEarlyPrice(t *testing.T) {
	deadline := time.Now().Add(time.Hour)
	p := product.Product{Price: 1500}

	require.Equal(t, calc.Money(1500), product.EffectivePrice(p, time.Now(), deadline))
}

func TestListServesFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	catalog := &stubCatalog{products: []product.Product{
		{ID: uuid.New(), Code: "0001", Name: "りんご", Price: 1200, IsActive: true},
	}}
	svc := &product.Service{Q: catalog, Cache: cache.Cache{R: client}, TTL: time.Minute}

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	second, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, catalog.listCalls)
}

func TestGetMapsMissingProduct(t *testing.T) {
	svc := &product.Service{Q: &stubCatalog{}}

	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "PRODUCT_NOT_FOUND", appErr.Code)
}
