package settings

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists application settings in PostgreSQL.
type Store struct {
	Pool *pgxpool.Pool
}

// GetAll returns every stored setting as a key/value map.
func (s Store) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := s.Pool.Query(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}

// Get returns one setting value; pgx.ErrNoRows when the key is absent.
func (s Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.Pool.QueryRow(ctx, `SELECT value FROM app_settings WHERE key = $1`, key).Scan(&value)
	return value, err
}

// Upsert writes one setting value.
func (s Store) Upsert(ctx context.Context, key, value string) error {
	const q = `
        INSERT INTO app_settings (key, value, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	_, err := s.Pool.Exec(ctx, q, key, value)
	return err
}
