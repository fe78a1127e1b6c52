package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kikite/backend-order/internal/calc"
	"github.com/kikite/backend-order/internal/common"
	"github.com/kikite/backend-order/internal/customer"
	"github.com/kikite/backend-order/internal/events"
	"github.com/kikite/backend-order/internal/obs"
	"github.com/kikite/backend-order/internal/product"
	"github.com/kikite/backend-order/internal/settings"
)

// Service coordinates order entry: validation, server-side recomputation of
// every fee, stock adjustment, and persistence in one transaction.
type Service struct {
	Pool      *pgxpool.Pool
	Store     Store
	Products  product.Querier
	Customers *customer.Store
	Settings  *settings.Service
	Bus       *events.Bus
	Validate  *validator.Validate
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type resolvedLine struct {
	calcLine calc.Line
	detail   Detail
	product  product.Product
}

// resolveLines loads each product, applies early pricing, and builds both the
// computation input and the detail row skeletons.
func (s *Service) resolveLines(ctx context.Context, lines []LineInput) ([]resolvedLine, error) {
	deadline, err := s.Settings.EarlyPriceDeadlineValue(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	out := make([]resolvedLine, 0, len(lines))
	for i, in := range lines {
		p, err := s.Products.GetByID(ctx, in.ProductID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewAppError("PRODUCT_NOT_FOUND",
				fmt.Sprintf("product %s not found", in.ProductID), http.StatusUnprocessableEntity, err)
		}
		if err != nil {
			return nil, fmt.Errorf("order: resolve product: %w", err)
		}
		if !p.IsActive {
			return nil, common.NewAppError("PRODUCT_INACTIVE",
				fmt.Sprintf("product %s is not available", p.Code), http.StatusUnprocessableEntity, nil)
		}

		unitPrice := product.EffectivePrice(p, now, deadline)

		var deliveryDate *time.Time
		if in.DeliveryDate != "" {
			d, err := time.Parse("2006-01-02", in.DeliveryDate)
			if err != nil {
				return nil, common.NewAppError("VALIDATION_ERROR", "invalid delivery date", http.StatusBadRequest, err)
			}
			deliveryDate = &d
		}

		noshi := in.NoshiType
		if noshi == "" {
			noshi = calc.NoshiNone
		}
		// An unset wrapping selection is not simple wrap; a paid noshi on
		// such a line still charges its fee.
		wrapping := in.WrappingType
		if wrapping == "" {
			wrapping = calc.WrappingNone
		}

		productID := p.ID
		out = append(out, resolvedLine{
			calcLine: calc.Line{
				LineIndex:      i,
				UnitPrice:      unitPrice,
				Quantity:       in.Quantity,
				PostalCode:     in.RecipientPostal,
				AddressLine1:   in.RecipientAddr1,
				RecipientName:  in.RecipientName,
				IsFreeShipping: p.IsFreeShipping,
				NoshiType:      noshi,
				WrappingType:   wrapping,
			},
			detail: Detail{
				LineIndex:       i,
				ProductID:       &productID,
				ProductCode:     p.Code,
				ProductName:     p.Name,
				UnitPrice:       unitPrice,
				Quantity:        in.Quantity,
				RecipientName:   in.RecipientName,
				RecipientPostal: in.RecipientPostal,
				RecipientPref:   in.RecipientPref,
				RecipientCity:   in.RecipientCity,
				RecipientAddr1:  in.RecipientAddr1,
				RecipientAddr2:  in.RecipientAddr2,
				RecipientPhone:  in.RecipientPhone,
				NoshiType:       noshi,
				WrappingType:    wrapping,
				IsFreeShipping:  p.IsFreeShipping,
				DeliveryDate:    deliveryDate,
				Message:         in.Message,
			},
			product: p,
		})
	}
	return out, nil
}

func (s *Service) compute(ctx context.Context, resolved []resolvedLine, method calc.PaymentMethod, discount calc.Money) (calc.Result, error) {
	defaultFee, err := s.Settings.DefaultShippingFeeValue(ctx)
	if err != nil {
		return calc.Result{}, err
	}
	threshold, err := s.Settings.FreeShippingThresholdValue(ctx)
	if err != nil {
		return calc.Result{}, err
	}

	calcLines := make([]calc.Line, len(resolved))
	for i, r := range resolved {
		calcLines[i] = r.calcLine
	}

	start := time.Now()
	result := calc.ComputeOrderTotal(calcLines, method, discount, defaultFee, threshold)
	if obs.CalcDuration != nil {
		obs.CalcDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	return result, nil
}

func (s *Service) validateUpsert(req UpsertRequest) (calc.PaymentMethod, error) {
	if s.Validate != nil {
		if err := s.Validate.Struct(req); err != nil {
			return "", common.NewAppError("VALIDATION_ERROR", err.Error(), http.StatusBadRequest, err)
		}
	}
	method := calc.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return "", common.NewAppError("VALIDATION_ERROR", "unknown payment method", http.StatusBadRequest, nil)
	}
	return method, nil
}

// Preview recomputes the totals breakdown without touching stock or storage.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (Breakdown, error) {
	if s.Validate != nil {
		if err := s.Validate.Struct(req); err != nil {
			return Breakdown{}, common.NewAppError("VALIDATION_ERROR", err.Error(), http.StatusBadRequest, err)
		}
	}
	method := calc.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return Breakdown{}, common.NewAppError("VALIDATION_ERROR", "unknown payment method", http.StatusBadRequest, nil)
	}
	resolved, err := s.resolveLines(ctx, req.Lines)
	if err != nil {
		return Breakdown{}, err
	}
	result, err := s.compute(ctx, resolved, method, req.Discount)
	if err != nil {
		return Breakdown{}, err
	}
	return toBreakdown(result), nil
}

func toBreakdown(r calc.Result) Breakdown {
	return Breakdown{
		LineTotals:       r.LineTotals,
		ShippingFees:     r.ShippingFees,
		WrappingFees:     r.WrappingFees,
		Subtotal:         r.Subtotal,
		TotalShippingFee: r.TotalShippingFee,
		TotalWrappingFee: r.TotalWrappingFee,
		TotalFee:         r.TotalFee,
		TotalAmount:      r.TotalAmount,
		PaymentFeeError:  r.PaymentFeeError,
	}
}

// Create validates, recomputes, and persists a new order. Stock is decremented
// inside the same transaction that reserves the order number.
func (s *Service) Create(ctx context.Context, req UpsertRequest) (Order, error) {
	method, err := s.validateUpsert(req)
	if err != nil {
		return Order{}, err
	}
	resolved, err := s.resolveLines(ctx, req.Lines)
	if err != nil {
		return Order{}, err
	}
	result, err := s.compute(ctx, resolved, method, req.Discount)
	if err != nil {
		return Order{}, err
	}
	if result.PaymentFeeError != "" {
		if obs.PaymentRejectionsTotal != nil {
			obs.PaymentRejectionsTotal.WithLabelValues(string(method)).Inc()
		}
		return Order{}, common.NewAppError("PAYMENT_METHOD_REJECTED", result.PaymentFeeError, http.StatusBadRequest, nil)
	}

	o := s.buildOrder(req, method, resolved, result)

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("order: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	number, err := s.Store.NextNumber(ctx, tx, s.now())
	if err != nil {
		return Order{}, fmt.Errorf("order: reserve number: %w", err)
	}
	o.OrderNumber = number

	if err := s.adjustStock(ctx, tx, resolved, -1); err != nil {
		return Order{}, err
	}
	if err := s.Store.Insert(ctx, tx, &o); err != nil {
		return Order{}, fmt.Errorf("order: insert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("order: commit: %w", err)
	}

	s.rememberCustomer(ctx, &o)

	if obs.OrdersCreatedTotal != nil {
		obs.OrdersCreatedTotal.WithLabelValues(string(method)).Inc()
	}
	if s.Bus != nil {
		_, _ = s.Bus.Emit(ctx, events.TopicOrderCreated, o.ID, map[string]any{
			"orderNumber": o.OrderNumber,
			"totalAmount": o.TotalAmount,
		})
	}
	return o, nil
}

func (s *Service) buildOrder(req UpsertRequest, method calc.PaymentMethod, resolved []resolvedLine, result calc.Result) Order {
	o := Order{
		OrdererName:       req.OrdererName,
		OrdererKana:       req.OrdererKana,
		OrdererPhone:      req.OrdererPhone,
		OrdererPostal:     req.OrdererPostal,
		OrdererPrefecture: req.OrdererPrefecture,
		OrdererCity:       req.OrdererCity,
		OrdererAddress1:   req.OrdererAddress1,
		OrdererAddress2:   req.OrdererAddress2,
		PaymentMethod:     method,
		Discount:          req.Discount,
		Subtotal:          result.Subtotal,
		ShippingFee:       result.TotalShippingFee,
		WrappingFee:       result.TotalWrappingFee,
		PaymentFee:        result.TotalFee,
		TotalAmount:       result.TotalAmount,
		Notes:             req.Notes,
		Status:            "confirmed",
	}
	o.Details = make([]Detail, len(resolved))
	for i, r := range resolved {
		d := r.detail
		d.LineTotal = result.LineTotals[i]
		d.ShippingFee = result.ShippingFees[i]
		d.WrappingFee = result.WrappingFees[i]
		o.Details[i] = d
	}
	return o
}

// adjustStock applies quantity deltas per line. direction is -1 to consume
// stock and +1 to restore it.
func (s *Service) adjustStock(ctx context.Context, tx pgx.Tx, resolved []resolvedLine, direction int) error {
	for _, r := range resolved {
		_, err := product.AdjustStock(ctx, tx, r.product.ID, direction*r.detail.Quantity)
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NewAppError("INSUFFICIENT_STOCK",
				fmt.Sprintf("insufficient stock for %s", r.product.Code), http.StatusConflict, nil)
		}
		if err != nil {
			return fmt.Errorf("order: adjust stock: %w", err)
		}
	}
	return nil
}

func (s *Service) restoreStock(ctx context.Context, tx pgx.Tx, details []Detail) error {
	for _, d := range details {
		if d.ProductID == nil {
			continue
		}
		if _, err := product.AdjustStock(ctx, tx, *d.ProductID, d.Quantity); err != nil {
			return fmt.Errorf("order: restore stock: %w", err)
		}
	}
	return nil
}

// rememberCustomer records the orderer's contact details for future lookups.
// Failures never block the order itself.
func (s *Service) rememberCustomer(ctx context.Context, o *Order) {
	if s.Customers == nil {
		return
	}
	id, err := s.Customers.Upsert(ctx, customer.Customer{
		Name:         o.OrdererName,
		Kana:         o.OrdererKana,
		Phone:        o.OrdererPhone,
		PostalCode:   o.OrdererPostal,
		Prefecture:   o.OrdererPrefecture,
		City:         o.OrdererCity,
		AddressLine1: o.OrdererAddress1,
		AddressLine2: o.OrdererAddress2,
	})
	if err == nil {
		o.CustomerID = &id
	}
}

// Update replaces an existing order: old stock is returned, the new lines are
// recomputed from scratch, and new stock is consumed, all in one transaction.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpsertRequest) (Order, error) {
	method, err := s.validateUpsert(req)
	if err != nil {
		return Order{}, err
	}
	resolved, err := s.resolveLines(ctx, req.Lines)
	if err != nil {
		return Order{}, err
	}
	result, err := s.compute(ctx, resolved, method, req.Discount)
	if err != nil {
		return Order{}, err
	}
	if result.PaymentFeeError != "" {
		if obs.PaymentRejectionsTotal != nil {
			obs.PaymentRejectionsTotal.WithLabelValues(string(method)).Inc()
		}
		return Order{}, common.NewAppError("PAYMENT_METHOD_REJECTED", result.PaymentFeeError, http.StatusBadRequest, nil)
	}

	existing, err := s.Store.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, common.NewAppError("ORDER_NOT_FOUND", "order not found", http.StatusNotFound, err)
	}
	if err != nil {
		return Order{}, fmt.Errorf("order: load: %w", err)
	}

	o := s.buildOrder(req, method, resolved, result)
	o.ID = existing.ID
	o.OrderNumber = existing.OrderNumber
	o.Status = existing.Status
	o.CreatedAt = existing.CreatedAt
	o.CustomerID = existing.CustomerID

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("order: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	oldDetails, err := s.Store.LockDetails(ctx, tx, id)
	if err != nil {
		return Order{}, fmt.Errorf("order: lock details: %w", err)
	}
	if err := s.restoreStock(ctx, tx, oldDetails); err != nil {
		return Order{}, err
	}
	if err := s.adjustStock(ctx, tx, resolved, -1); err != nil {
		return Order{}, err
	}
	if err := s.Store.UpdateHeader(ctx, tx, &o); err != nil {
		return Order{}, fmt.Errorf("order: update: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("order: commit: %w", err)
	}

	if s.Bus != nil {
		_, _ = s.Bus.Emit(ctx, events.TopicOrderUpdated, o.ID, map[string]any{
			"orderNumber": o.OrderNumber,
			"totalAmount": o.TotalAmount,
		})
	}
	return o, nil
}

// Delete removes an order and returns its stock.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("order: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	details, err := s.Store.LockDetails(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("order: lock details: %w", err)
	}
	if err := s.restoreStock(ctx, tx, details); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, tx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NewAppError("ORDER_NOT_FOUND", "order not found", http.StatusNotFound, err)
		}
		return fmt.Errorf("order: delete: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("order: commit: %w", err)
	}

	if s.Bus != nil {
		_, _ = s.Bus.Emit(ctx, events.TopicOrderDeleted, id, nil)
	}
	return nil
}

// Get loads one order with details.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := s.Store.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, common.NewAppError("ORDER_NOT_FOUND", "order not found", http.StatusNotFound, err)
	}
	if err != nil {
		return Order{}, fmt.Errorf("order: get: %w", err)
	}
	return o, nil
}

// List returns order headers with pagination.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, int64, error) {
	orders, total, err := s.Store.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("order: list: %w", err)
	}
	return orders, total, nil
}

// NextNumber reports the next order number without reserving it.
func (s *Service) NextNumber(ctx context.Context) (string, error) {
	number, err := s.Store.PeekNextNumber(ctx, s.now())
	if err != nil {
		return "", fmt.Errorf("order: peek number: %w", err)
	}
	return number, nil
}
