package postal

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Address is a resolved postal address fragment.
type Address struct {
	PostalCode string `json:"postalCode"`
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	Town       string `json:"town"`
}

// Store persists the local postal code table.
type Store struct {
	Pool *pgxpool.Pool
}

// FindByCode returns all local entries for a 7-digit postal code.
func (s Store) FindByCode(ctx context.Context, code string) ([]Address, error) {
	const q = `
        SELECT postal_code, prefecture, city, town
        FROM postal_codes WHERE postal_code = $1
        ORDER BY id`
	rows, err := s.Pool.Query(ctx, q, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.PostalCode, &a.Prefecture, &a.City, &a.Town); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Count returns the number of imported postal code rows.
func (s Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM postal_codes`).Scan(&n)
	return n, err
}

// InsertBatch upserts a batch of postal code entries, skipping duplicates.
func (s Store) InsertBatch(ctx context.Context, addresses []Address) (int64, error) {
	if len(addresses) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	const q = `
        INSERT INTO postal_codes (postal_code, prefecture, city, town)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (postal_code, prefecture, city, town) DO NOTHING`
	for _, a := range addresses {
		batch.Queue(q, a.PostalCode, a.Prefecture, a.City, a.Town)
	}
	results := s.Pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	var inserted int64
	for range addresses {
		tag, err := results.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
