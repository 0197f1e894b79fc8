package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const PgUniqueViolation = "23505"

type Repository interface {
	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error)

	// CreateOrderTx writes the order and its items in one transaction. It reports
	// false when an order for the session already exists. Items that fail to insert
	// are dropped from o.Items and the order is still committed.
	CreateOrderTx(ctx context.Context, o *Order) (bool, error)

	List(ctx context.Context, f ListFilter) ([]Order, int, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Order, error)
	MarkRefunded(ctx context.Context, id uuid.UUID, u refundUpdate) (*Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	id, order_number, stripe_session_id, stripe_payment_intent_id,
	customer_email, customer_name, customer_phone, shipping_address,
	region, currency, subtotal, shipping, tax, total,
	status, payment_status, fulfillment_status,
	tracking_number, carrier, shipped_at, delivered_at, notes,
	refund_id, refunded_amount, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*Order, error) {
	var o Order
	err := s.Scan(
		&o.ID, &o.OrderNumber, &o.StripeSessionID, &o.StripePaymentIntentID,
		&o.CustomerEmail, &o.CustomerName, &o.CustomerPhone, &o.ShippingAddress,
		&o.Region, &o.Currency, &o.Subtotal, &o.Shipping, &o.Tax, &o.Total,
		&o.Status, &o.PaymentStatus, &o.FulfillmentStatus,
		&o.TrackingNumber, &o.Carrier, &o.ShippedAt, &o.DeliveredAt, &o.Notes,
		&o.RefundID, &o.RefundedAmount, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) getOne(ctx context.Context, where string, arg any) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + where
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	return r.getOne(ctx, "stripe_session_id = $1", sessionID)
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *repository) ListItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, product_slug, color,
		       quantity, unit_price, total_price, image_url, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []OrderItem{}
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.ProductSlug, &it.Color,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.ImageURL, &it.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

func (r *repository) CreateOrderTx(ctx context.Context, o *Order) (bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrderTx"),
		zap.String("session_id", o.StripeSessionID),
	)

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// 1. Insert order
	const q = `
	INSERT INTO orders (
		id, order_number, stripe_session_id, stripe_payment_intent_id,
		customer_email, customer_name, customer_phone, shipping_address,
		region, currency, subtotal, shipping, tax, total,
		status, payment_status, fulfillment_status
	)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	ON CONFLICT (stripe_session_id) DO NOTHING
	RETURNING created_at, updated_at;
	`

	err = tx.QueryRowContext(ctx, q,
		o.ID, o.OrderNumber, o.StripeSessionID, o.StripePaymentIntentID,
		o.CustomerEmail, o.CustomerName, o.CustomerPhone, o.ShippingAddress,
		o.Region, o.Currency, o.Subtotal, o.Shipping, o.Tax, o.Total,
		o.Status, o.PaymentStatus, o.FulfillmentStatus,
	).Scan(&o.CreatedAt, &o.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			log.Info("order already exists for session")
			return false, nil
		}
		log.Error("failed to insert order", zap.Error(err))
		return false, err
	}

	// 2. Insert items. A failure rolls back to the savepoint and the order is
	// committed without lines.
	if len(o.Items) > 0 {
		if err := insertItemsTx(ctx, tx, o); err != nil {
			log.Error("failed to insert order items", zap.Int("items", len(o.Items)), zap.Error(err))
			o.Items = nil
		}
	}

	// 3. Commit
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit order: %w", err)
	}
	committed = true
	return true, nil
}

func insertItemsTx(ctx context.Context, tx *sql.Tx, o *Order) error {
	if _, err := tx.ExecContext(ctx, `SAVEPOINT order_items`); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}

	err := func() error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, product_name, product_slug, color,
				quantity, unit_price, total_price, image_url
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`)
		if err != nil {
			return fmt.Errorf("prepare order items: %w", err)
		}
		defer stmt.Close()

		for i := range o.Items {
			it := &o.Items[i]
			if it.ID == uuid.Nil {
				it.ID = uuid.New()
			}
			it.OrderID = o.ID

			if _, err := stmt.ExecContext(ctx,
				it.ID, o.ID, it.ProductID, it.ProductName, it.ProductSlug, it.Color,
				it.Quantity, it.UnitPrice, it.TotalPrice, it.ImageURL,
			); err != nil {
				return fmt.Errorf("insert order item %d: %w", i, err)
			}
		}
		return nil
	}()
	if err != nil {
		if _, rbErr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT order_items`); rbErr != nil {
			return fmt.Errorf("%w (rollback to savepoint: %v)", err, rbErr)
		}
		return err
	}

	_, err = tx.ExecContext(ctx, `RELEASE SAVEPOINT order_items`)
	return err
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	f = f.Normalize()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
		zap.Int("limit", f.Limit),
		zap.Int("page", f.Page),
	)

	where := " WHERE 1=1"
	args := []any{}
	argIndex := 1

	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, f.Status)
		argIndex++
	}

	if f.Search != "" {
		where += fmt.Sprintf(
			" AND (order_number ILIKE $%d OR customer_email ILIKE $%d OR customer_name ILIKE $%d)",
			argIndex, argIndex, argIndex,
		)
		args = append(args, "%"+f.Search+"%")
		argIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		log.Error("failed to count orders", zap.Error(err))
		return nil, 0, err
	}

	query := "SELECT " + orderColumns + " FROM orders" + where +
		" ORDER BY " + sortColumns[f.SortBy] + " " + f.SortOrder +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, f.Limit, f.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, 0, err
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Order, error) {
	sets := []string{}
	args := []any{}

	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if in.Status != nil {
		add("status", *in.Status)
	}
	if in.FulfillmentStatus != nil {
		add("fulfillment_status", *in.FulfillmentStatus)
	}
	if in.TrackingNumber != nil {
		add("tracking_number", *in.TrackingNumber)
	}
	if in.Carrier != nil {
		add("carrier", *in.Carrier)
	}
	if in.ShippedAt != nil {
		add("shipped_at", *in.ShippedAt)
	}
	if in.DeliveredAt != nil {
		add("delivered_at", *in.DeliveredAt)
	}
	if in.Notes != nil {
		add("notes", *in.Notes)
	}

	if len(sets) == 0 {
		return nil, ErrEmptyUpdate
	}

	args = append(args, id)
	query := "UPDATE orders SET " + strings.Join(sets, ", ") + ", updated_at = now()" +
		fmt.Sprintf(" WHERE id = $%d", len(args)) +
		" RETURNING " + orderColumns

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

func (r *repository) MarkRefunded(ctx context.Context, id uuid.UUID, u refundUpdate) (*Order, error) {
	query := `
	UPDATE orders
	SET status = $2,
	    payment_status = $3,
	    refund_id = $4,
	    refunded_amount = $5,
	    notes = CASE WHEN notes IS NULL OR notes = '' THEN $6 ELSE notes || E'\n' || $6 END,
	    updated_at = now()
	WHERE id = $1
	RETURNING ` + orderColumns

	o, err := scanOrder(r.db.QueryRowContext(ctx, query,
		id, StatusRefunded, u.PaymentStatus, u.RefundID, u.Amount, u.Note,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == PgUniqueViolation
}
