package product

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kikite/backend-order/internal/calc"
)

// Product is a sellable item in the phone order catalog.
type Product struct {
	ID             uuid.UUID   `json:"id"`
	Code           string      `json:"code"`
	Name           string      `json:"name"`
	Price          calc.Money  `json:"price"`
	EarlyPrice     *calc.Money `json:"earlyPrice,omitempty"`
	IsFreeShipping bool        `json:"isFreeShipping"`
	Stock          int         `json:"stock"`
	IsActive       bool        `json:"isActive"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

const productColumns = `id, code, name, price, early_price, is_free_shipping, stock, is_active, created_at, updated_at`

// Store persists products in PostgreSQL.
type Store struct {
	Pool *pgxpool.Pool
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Price, &p.EarlyPrice, &p.IsFreeShipping, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListActive returns all active products ordered by code.
func (s Store) ListActive(ctx context.Context) ([]Product, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE is_active ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID fetches one product by identifier.
func (s Store) GetByID(ctx context.Context, id uuid.UUID) (Product, error) {
	return scanProduct(s.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

// GetByCode fetches one product by its catalog code.
func (s Store) GetByCode(ctx context.Context, code string) (Product, error) {
	return scanProduct(s.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE code = $1`, code))
}

// AdjustStock applies a delta to the product stock inside the caller's transaction.
// Returns the remaining stock; fails the statement when stock would go negative.
func AdjustStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta int) (int, error) {
	var remaining int
	err := tx.QueryRow(ctx, `
        UPDATE products SET stock = stock + $2, updated_at = now()
        WHERE id = $1 AND stock + $2 >= 0
        RETURNING stock`, id, delta).Scan(&remaining)
	return remaining, err
}
