package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kikite/backend-order/internal/calc"
)

// Store persists orders and their details in PostgreSQL.
type Store struct {
	Pool *pgxpool.Pool
}

// NextNumber reserves the next sequential order number for the given day.
// Numbers follow TEL-YYYYMMDD-NNNN and reset daily.
func (s Store) NextNumber(ctx context.Context, tx pgx.Tx, now time.Time) (string, error) {
	const q = `
        INSERT INTO order_number_counters (day, counter)
        VALUES ($1, 1)
        ON CONFLICT (day) DO UPDATE SET counter = order_number_counters.counter + 1
        RETURNING counter`
	var counter int
	if err := tx.QueryRow(ctx, q, now.Format("2006-01-02")).Scan(&counter); err != nil {
		return "", err
	}
	return fmt.Sprintf("TEL-%s-%04d", now.Format("20060102"), counter), nil
}

// PeekNextNumber reports the number the next created order would receive
// without reserving it.
func (s Store) PeekNextNumber(ctx context.Context, now time.Time) (string, error) {
	var counter int
	err := s.Pool.QueryRow(ctx,
		`SELECT counter FROM order_number_counters WHERE day = $1`,
		now.Format("2006-01-02")).Scan(&counter)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	return fmt.Sprintf("TEL-%s-%04d", now.Format("20060102"), counter+1), nil
}

// Insert writes the order header and all detail rows inside the transaction.
func (s Store) Insert(ctx context.Context, tx pgx.Tx, o *Order) error {
	const insertOrder = `
        INSERT INTO orders (
            order_number, customer_id,
            orderer_name, orderer_kana, orderer_phone, orderer_postal,
            orderer_prefecture, orderer_city, orderer_address1, orderer_address2,
            payment_method, discount, subtotal, shipping_fee, wrapping_fee,
            payment_fee, total_amount, notes, status
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
        RETURNING id, created_at, updated_at`
	err := tx.QueryRow(ctx, insertOrder,
		o.OrderNumber, o.CustomerID,
		o.OrdererName, o.OrdererKana, o.OrdererPhone, o.OrdererPostal,
		o.OrdererPrefecture, o.OrdererCity, o.OrdererAddress1, o.OrdererAddress2,
		string(o.PaymentMethod), o.Discount, o.Subtotal, o.ShippingFee, o.WrappingFee,
		o.PaymentFee, o.TotalAmount, o.Notes, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}
	return s.insertDetails(ctx, tx, o)
}

func (s Store) insertDetails(ctx context.Context, tx pgx.Tx, o *Order) error {
	const insertDetail = `
        INSERT INTO order_details (
            order_id, line_index, product_id, product_code, product_name,
            unit_price, quantity, line_total,
            recipient_name, recipient_postal, recipient_pref, recipient_city,
            recipient_addr1, recipient_addr2, recipient_phone,
            noshi_type, wrapping_type, shipping_fee, wrapping_fee,
            is_free_shipping, delivery_date, message
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
        RETURNING id`
	for i := range o.Details {
		d := &o.Details[i]
		d.OrderID = o.ID
		err := tx.QueryRow(ctx, insertDetail,
			o.ID, d.LineIndex, d.ProductID, d.ProductCode, d.ProductName,
			d.UnitPrice, d.Quantity, d.LineTotal,
			d.RecipientName, d.RecipientPostal, d.RecipientPref, d.RecipientCity,
			d.RecipientAddr1, d.RecipientAddr2, d.RecipientPhone,
			d.NoshiType, d.WrappingType, d.ShippingFee, d.WrappingFee,
			d.IsFreeShipping, d.DeliveryDate, d.Message,
		).Scan(&d.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateHeader rewrites the order header and replaces all detail rows.
func (s Store) UpdateHeader(ctx context.Context, tx pgx.Tx, o *Order) error {
	const updateOrder = `
        UPDATE orders SET
            customer_id = $2,
            orderer_name = $3, orderer_kana = $4, orderer_phone = $5, orderer_postal = $6,
            orderer_prefecture = $7, orderer_city = $8, orderer_address1 = $9, orderer_address2 = $10,
            payment_method = $11, discount = $12, subtotal = $13, shipping_fee = $14,
            wrapping_fee = $15, payment_fee = $16, total_amount = $17, notes = $18,
            updated_at = now()
        WHERE id = $1
        RETURNING updated_at`
	err := tx.QueryRow(ctx, updateOrder,
		o.ID, o.CustomerID,
		o.OrdererName, o.OrdererKana, o.OrdererPhone, o.OrdererPostal,
		o.OrdererPrefecture, o.OrdererCity, o.OrdererAddress1, o.OrdererAddress2,
		string(o.PaymentMethod), o.Discount, o.Subtotal, o.ShippingFee,
		o.WrappingFee, o.PaymentFee, o.TotalAmount, o.Notes,
	).Scan(&o.UpdatedAt)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM order_details WHERE order_id = $1`, o.ID); err != nil {
		return err
	}
	return s.insertDetails(ctx, tx, o)
}

const orderColumns = `
    id, order_number, customer_id,
    orderer_name, orderer_kana, orderer_phone, orderer_postal,
    orderer_prefecture, orderer_city, orderer_address1, orderer_address2,
    payment_method, discount, subtotal, shipping_fee, wrapping_fee,
    payment_fee, total_amount, notes, status, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var method string
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID,
		&o.OrdererName, &o.OrdererKana, &o.OrdererPhone, &o.OrdererPostal,
		&o.OrdererPrefecture, &o.OrdererCity, &o.OrdererAddress1, &o.OrdererAddress2,
		&method, &o.Discount, &o.Subtotal, &o.ShippingFee, &o.WrappingFee,
		&o.PaymentFee, &o.TotalAmount, &o.Notes, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	o.PaymentMethod = calc.PaymentMethod(method)
	return o, err
}

// GetByID loads one order with its detail lines, ordered by line index.
func (s Store) GetByID(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := scanOrder(s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return Order{}, err
	}
	details, err := s.detailsFor(ctx, id)
	if err != nil {
		return Order{}, err
	}
	o.Details = details
	return o, nil
}

func (s Store) detailsFor(ctx context.Context, orderID uuid.UUID) ([]Detail, error) {
	const q = `
        SELECT id, order_id, line_index, product_id, product_code, product_name,
               unit_price, quantity, line_total,
               recipient_name, recipient_postal, recipient_pref, recipient_city,
               recipient_addr1, recipient_addr2, recipient_phone,
               noshi_type, wrapping_type, shipping_fee, wrapping_fee,
               is_free_shipping, delivery_date, message
        FROM order_details WHERE order_id = $1 ORDER BY line_index`
	rows, err := s.Pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Detail
	for rows.Next() {
		var d Detail
		if err := rows.Scan(
			&d.ID, &d.OrderID, &d.LineIndex, &d.ProductID, &d.ProductCode, &d.ProductName,
			&d.UnitPrice, &d.Quantity, &d.LineTotal,
			&d.RecipientName, &d.RecipientPostal, &d.RecipientPref, &d.RecipientCity,
			&d.RecipientAddr1, &d.RecipientAddr2, &d.RecipientPhone,
			&d.NoshiType, &d.WrappingType, &d.ShippingFee, &d.WrappingFee,
			&d.IsFreeShipping, &d.DeliveryDate, &d.Message,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListFilter narrows the order list.
type ListFilter struct {
	Search string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// List returns order headers newest-first with a total count.
func (s Store) List(ctx context.Context, f ListFilter) ([]Order, int64, error) {
	where := ` WHERE ($1 = '' OR order_number ILIKE '%' || $1 || '%' OR orderer_name ILIKE '%' || $1 || '%' OR orderer_phone LIKE '%' || $1 || '%')
               AND ($2::timestamptz IS NULL OR created_at >= $2)
               AND ($3::timestamptz IS NULL OR created_at <= $3)`

	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM orders`+where, f.Search, f.From, f.To).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.Pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders`+where+` ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		f.Search, f.From, f.To, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// ListWithDetails returns full orders in a date range for the CSV export.
func (s Store) ListWithDetails(ctx context.Context, from, to *time.Time) ([]Order, error) {
	orders, _, err := s.List(ctx, ListFilter{From: from, To: to, Limit: 100000})
	if err != nil {
		return nil, err
	}
	for i := range orders {
		details, err := s.detailsFor(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Details = details
	}
	return orders, nil
}

// Delete removes the order; detail rows cascade.
func (s Store) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// LockDetails loads detail lines for update within the transaction.
func (s Store) LockDetails(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]Detail, error) {
	const q = `
        SELECT id, product_id, quantity
        FROM order_details WHERE order_id = $1 FOR UPDATE`
	rows, err := tx.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Detail
	for rows.Next() {
		var d Detail
		if err := rows.Scan(&d.ID, &d.ProductID, &d.Quantity); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
