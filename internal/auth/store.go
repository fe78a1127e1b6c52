package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Operator is a staff account that can sign in to the order entry console.
type Operator struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Store persists operator accounts in PostgreSQL.
type Store struct {
	Pool *pgxpool.Pool
}

// CreateOperator inserts a new operator account.
func (s Store) CreateOperator(ctx context.Context, email, name, passwordHash string) (Operator, error) {
	const q = `
        INSERT INTO operators (email, name, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, email, name, password_hash, created_at, updated_at`
	var op Operator
	err := s.Pool.QueryRow(ctx, q, email, name, passwordHash).
		Scan(&op.ID, &op.Email, &op.Name, &op.PasswordHash, &op.CreatedAt, &op.UpdatedAt)
	return op, err
}

// GetOperatorByEmail fetches an operator by normalized email.
func (s Store) GetOperatorByEmail(ctx context.Context, email string) (Operator, error) {
	const q = `
        SELECT id, email, name, password_hash, created_at, updated_at
        FROM operators WHERE email = $1`
	var op Operator
	err := s.Pool.QueryRow(ctx, q, email).
		Scan(&op.ID, &op.Email, &op.Name, &op.PasswordHash, &op.CreatedAt, &op.UpdatedAt)
	return op, err
}

// GetOperatorByID fetches an operator by identifier.
func (s Store) GetOperatorByID(ctx context.Context, id uuid.UUID) (Operator, error) {
	const q = `
        SELECT id, email, name, password_hash, created_at, updated_at
        FROM operators WHERE id = $1`
	var op Operator
	err := s.Pool.QueryRow(ctx, q, id).
		Scan(&op.ID, &op.Email, &op.Name, &op.PasswordHash, &op.CreatedAt, &op.UpdatedAt)
	return op, err
}
