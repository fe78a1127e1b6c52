package customer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Customer is a repeat caller whose address can be recalled during order entry.
type Customer struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Kana         string    `json:"kana"`
	Phone        string    `json:"phone"`
	PostalCode   string    `json:"postalCode"`
	Prefecture   string    `json:"prefecture"`
	City         string    `json:"city"`
	AddressLine1 string    `json:"addressLine1"`
	AddressLine2 string    `json:"addressLine2"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

const customerColumns = `id, name, kana, phone, postal_code, prefecture, city, address_line1, address_line2, created_at, updated_at`

// Store persists customers in PostgreSQL.
type Store struct {
	Pool *pgxpool.Pool
}

// Search matches customers by partial name, kana, or phone number.
func (s Store) Search(ctx context.Context, query string, limit int) ([]Customer, error) {
	const q = `
        SELECT ` + customerColumns + `
        FROM customers
        WHERE name ILIKE '%' || $1 || '%'
           OR kana ILIKE '%' || $1 || '%'
           OR phone LIKE '%' || $1 || '%'
        ORDER BY updated_at DESC
        LIMIT $2`
	rows, err := s.Pool.Query(ctx, q, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Kana, &c.Phone, &c.PostalCode, &c.Prefecture, &c.City, &c.AddressLine1, &c.AddressLine2, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Upsert stores the orderer's contact details, matching on phone number.
func (s Store) Upsert(ctx context.Context, c Customer) (uuid.UUID, error) {
	const insert = `
        INSERT INTO customers (name, kana, phone, postal_code, prefecture, city, address_line1, address_line2)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`
	const update = `
        UPDATE customers
        SET name = $1, kana = $2, postal_code = $4, prefecture = $5, city = $6,
            address_line1 = $7, address_line2 = $8, updated_at = now()
        WHERE phone = $3
        RETURNING id`
	var id uuid.UUID
	if c.Phone != "" {
		err := s.Pool.QueryRow(ctx, update, c.Name, c.Kana, c.Phone, c.PostalCode, c.Prefecture, c.City, c.AddressLine1, c.AddressLine2).Scan(&id)
		if err == nil {
			return id, nil
		}
	}
	err := s.Pool.QueryRow(ctx, insert, c.Name, c.Kana, c.Phone, c.PostalCode, c.Prefecture, c.City, c.AddressLine1, c.AddressLine2).Scan(&id)
	return id, err
}
