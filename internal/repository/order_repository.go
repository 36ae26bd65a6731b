package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, order_number, status, payment_status, shipping_method_id,
			subtotal, tax, shipping_cost, total,
			customer_name, customer_email, customer_phone, customer_company,
			source_quote_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.OrderNumber,
		order.Status,
		order.PaymentStatus,
		order.ShippingMethodID,
		order.Subtotal,
		order.Tax,
		order.ShippingCost,
		order.Total,
		order.Customer.Name,
		order.Customer.Email,
		order.Customer.Phone,
		order.Customer.Company,
		order.SourceQuoteID,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts the order's line items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []model.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, position, product_id, product_name,
			quantity, unit_price, customization, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(query,
			item.ID, orderID, i, item.ProductID, item.ProductName,
			item.Quantity, item.UnitPrice, item.Customization, item.TotalPrice)
	}

	if err := execBatch(ctx, tx, batch); err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to create order items")
		return fmt.Errorf("failed to create order items: %w", err)
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	orderQuery := `
		SELECT id, order_number, status, payment_status, shipping_method_id,
		       subtotal, tax, shipping_cost, total,
		       customer_name, customer_email, customer_phone, customer_company,
		       source_quote_id,
		       carrier, tracking_number, tracking_url, shipped_at,
		       estimated_delivery, delivered_at, tracking_notes,
		       created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var (
		order                               model.Order
		carrier, number, url, notes         *string
		shippedAt, estimatedAt, deliveredAt *time.Time
	)
	err := r.pool.QueryRow(ctx, orderQuery, id).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.Status,
		&order.PaymentStatus,
		&order.ShippingMethodID,
		&order.Subtotal,
		&order.Tax,
		&order.ShippingCost,
		&order.Total,
		&order.Customer.Name,
		&order.Customer.Email,
		&order.Customer.Phone,
		&order.Customer.Company,
		&order.SourceQuoteID,
		&carrier,
		&number,
		&url,
		&shippedAt,
		&estimatedAt,
		&deliveredAt,
		&notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if carrier != nil || number != nil || shippedAt != nil || deliveredAt != nil {
		order.Tracking = &model.Tracking{
			Carrier:           deref(carrier),
			TrackingNumber:    deref(number),
			TrackingURL:       deref(url),
			ShippedAt:         shippedAt,
			EstimatedDelivery: estimatedAt,
			DeliveredAt:       deliveredAt,
			Notes:             deref(notes),
		}
	}

	itemsQuery := `
		SELECT id, product_id, product_name, quantity, unit_price, customization, total_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	order.Items = make([]model.LineItem, 0)
	for rows.Next() {
		var item model.LineItem
		err := rows.Scan(
			&item.ID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPrice,
			&item.Customization,
			&item.TotalPrice,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return &order, nil
}

// UpdateStatus writes order.Status and its shipment timestamps if the stored
// status still equals expected.
func (r *orderRepository) UpdateStatus(ctx context.Context, order *model.Order, expected model.OrderStatus) (bool, error) {
	var shippedAt, deliveredAt *time.Time
	if order.Tracking != nil {
		shippedAt = order.Tracking.ShippedAt
		deliveredAt = order.Tracking.DeliveredAt
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET status = $3, shipped_at = $4, delivered_at = $5, updated_at = $6
		WHERE id = $1 AND status = $2`,
		order.ID, expected, order.Status, shippedAt, deliveredAt, order.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("status", string(order.Status)).
			Msg("failed to update order status")
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// UpdatePaymentStatus moves the payment status from expected to next.
func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, expected, next model.PaymentStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND payment_status = $2`,
		id, expected, next)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("payment_status", string(next)).
			Msg("failed to update payment status")
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// SetTracking replaces the tracking details of an order. Shipment timestamps
// are owned by status transitions and left untouched.
func (r *orderRepository) SetTracking(ctx context.Context, id uuid.UUID, tracking *model.Tracking) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET carrier = $2, tracking_number = $3, tracking_url = $4,
		    estimated_delivery = $5, tracking_notes = $6, updated_at = NOW()
		WHERE id = $1`,
		id,
		tracking.Carrier,
		tracking.TrackingNumber,
		nullable(tracking.TrackingURL),
		tracking.EstimatedDelivery,
		nullable(tracking.Notes),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to set tracking")
		return fmt.Errorf("failed to set tracking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
