package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/lifecycle"
	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo    repository.OrderRepository
	settingsRepo repository.SettingsRepository
	pricer       *cartPricer
	rates        *shippingRates
	numbers      NumberGenerator
	retry        Retrier
	logger       zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	shippingRepo repository.ShippingRepository,
	settingsRepo repository.SettingsRepository,
	numbers NumberGenerator,
	retry Retrier,
	logger zerolog.Logger,
) OrderService {
	logger = logger.With().Str("service", "order").Logger()
	return &orderService{
		orderRepo:    orderRepo,
		settingsRepo: settingsRepo,
		pricer:       &cartPricer{products: productRepo, retry: retry, logger: logger},
		rates:        &shippingRates{methods: shippingRepo, retry: retry, logger: logger},
		numbers:      numbers,
		retry:        retry,
		logger:       logger,
	}
}

// Preview prices a cart without persisting anything. A cart nothing can ship
// still previews, with no shipping options.
func (s *orderService) Preview(ctx context.Context, req *model.CartRequest) (*model.CartSummary, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, model.NewValidationError("items", "at least one item is required")
	}

	cart, err := s.pricer.price(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	subtotal := cart.subtotal()

	options, err := s.rates.options(ctx, cart, subtotal)
	if err != nil && !errors.Is(err, model.ErrNoShippingAvailable) {
		return nil, err
	}
	if options == nil {
		options = []model.ShippingQuote{}
	}

	shippingCost := decimal.Zero
	if req.ShippingMethodID != nil && *req.ShippingMethodID != "" {
		choice, err := pricing.SelectShipping(options, *req.ShippingMethodID)
		if err != nil {
			return nil, err
		}
		shippingCost = choice.Cost
	}

	minimum, err := s.minimumOrderValue(ctx)
	if err != nil {
		return nil, err
	}

	totals := pricing.Recompute(cart.items, shippingCost)

	return &model.CartSummary{
		Items:           cart.items,
		ShippingOptions: options,
		Totals:          totals.Rounded(),
		MinimumOrder:    pricing.CheckMinimumOrder(totals.Subtotal, minimum),
		NeedsQuote:      len(cart.unpriced) > 0,
	}, nil
}

// MinimumOrder checks subtotal against the store's minimum order value.
func (s *orderService) MinimumOrder(ctx context.Context, subtotal decimal.Decimal) (*model.MinimumOrder, error) {
	if subtotal.IsNegative() {
		return nil, model.NewValidationError("subtotal", "must not be negative")
	}

	minimum, err := s.minimumOrderValue(ctx)
	if err != nil {
		return nil, err
	}

	result := pricing.CheckMinimumOrder(subtotal, minimum)
	return &result, nil
}

// SetMinimumOrder changes the store's minimum order value.
func (s *orderService) SetMinimumOrder(ctx context.Context, value decimal.Decimal) error {
	if value.IsNegative() {
		return model.NewValidationError("minimumOrderValue", "must not be negative")
	}

	if err := s.settingsRepo.SetMinimumOrderValue(ctx, value); err != nil {
		return fmt.Errorf("failed to set minimum order value: %w", err)
	}
	return nil
}

// Checkout places a direct order. Every line must be priced, the subtotal
// must reach the minimum order value and the chosen shipping method must be
// eligible for the shipment.
func (s *orderService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.Order, error) {
	if err := s.validateCheckoutRequest(req); err != nil {
		return nil, err
	}

	cart, err := s.pricer.price(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	if len(cart.unpriced) > 0 {
		s.logger.Warn().
			Strs("product_ids", cart.unpriced).
			Msg("checkout attempted with products priced on request")
		return nil, fmt.Errorf("%w: %s", model.ErrNotPriced, cart.unpriced[0])
	}

	subtotal := cart.subtotal()

	minimum, err := s.minimumOrderValue(ctx)
	if err != nil {
		return nil, err
	}
	if !pricing.IsEligible(subtotal, minimum) {
		remaining := pricing.Remaining(subtotal, minimum)
		s.logger.Debug().
			Str("subtotal", subtotal.StringFixed(2)).
			Str("remaining", remaining.StringFixed(2)).
			Msg("minimum order value not met")
		return nil, fmt.Errorf("%w: %s remaining", model.ErrMinimumOrderNotMet, remaining.StringFixed(2))
	}

	shippingCost, err := s.rates.selected(ctx, cart, subtotal, &req.ShippingMethodID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	methodID := req.ShippingMethodID
	order := &model.Order{
		ID:               uuid.New(),
		OrderNumber:      s.numbers.OrderNumber(),
		Status:           model.OrderStatusPending,
		PaymentStatus:    model.PaymentStatusPending,
		Items:            cart.items,
		ShippingMethodID: &methodID,
		Totals:           pricing.Recompute(cart.items, shippingCost).Rounded(),
		Customer:         req.Customer,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.persist(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Int("item_count", len(order.Items)).
		Str("total", order.Total.StringFixed(2)).
		Msg("order created successfully")

	return order, nil
}

// persist writes the order and its lines in one transaction.
func (s *orderService) persist(ctx context.Context, order *model.Order) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.ID, order.Items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(order.Items)).
			Msg("failed to create order items")
		return fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := retryFetch(ctx, s.retry, s.logger, "order", func(ctx context.Context) (*model.Order, error) {
		return s.orderRepo.GetByID(ctx, id)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// UpdateStatus moves an order along its fulfilment lifecycle.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expected := order.Status
	if err := lifecycle.ApplyOrderStatus(order, status, time.Now().UTC()); err != nil {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("from", string(expected)).
			Str("to", string(status)).
			Msg("rejected order status transition")
		return nil, err
	}

	ok, err := s.orderRepo.UpdateStatus(ctx, order, expected)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: order status changed concurrently", model.ErrInvalidTransition)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(expected)).
		Str("to", string(status)).
		Msg("order status updated")

	return order, nil
}

// UpdatePaymentStatus changes an order's payment status.
func (s *orderService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) (*model.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !lifecycle.CanSetPayment(order.PaymentStatus, status) {
		return nil, fmt.Errorf("%w: payment %s -> %s", model.ErrInvalidTransition, order.PaymentStatus, status)
	}

	ok, err := s.orderRepo.UpdatePaymentStatus(ctx, id, order.PaymentStatus, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: payment status changed concurrently", model.ErrInvalidTransition)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(order.PaymentStatus)).
		Str("to", string(status)).
		Msg("payment status updated")

	order.PaymentStatus = status
	return order, nil
}

// SetTracking records carrier tracking details on an order. Shipment
// timestamps already stamped by status changes are kept.
func (s *orderService) SetTracking(ctx context.Context, id uuid.UUID, req *model.TrackingRequest) (*model.Order, error) {
	if req == nil || req.Carrier == "" || req.TrackingNumber == "" {
		return nil, model.NewValidationError("tracking", "carrier and tracking number are required")
	}

	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == model.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: order is cancelled", model.ErrInvalidTransition)
	}

	tracking := &model.Tracking{
		Carrier:           req.Carrier,
		TrackingNumber:    req.TrackingNumber,
		TrackingURL:       req.TrackingURL,
		EstimatedDelivery: req.EstimatedDelivery,
		Notes:             req.Notes,
	}
	if order.Tracking != nil {
		tracking.ShippedAt = order.Tracking.ShippedAt
		tracking.DeliveredAt = order.Tracking.DeliveredAt
	}

	if err := s.orderRepo.SetTracking(ctx, id, tracking); err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to set tracking: %w", err)
	}

	order.Tracking = tracking
	return order, nil
}

func (s *orderService) minimumOrderValue(ctx context.Context) (decimal.Decimal, error) {
	minimum, err := retryFetch(ctx, s.retry, s.logger, "minimum_order_value", s.settingsRepo.MinimumOrderValue)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load minimum order value")
		return decimal.Zero, fmt.Errorf("failed to load minimum order value: %w", err)
	}
	return minimum, nil
}

// validateCheckoutRequest validates the checkout request.
func (s *orderService) validateCheckoutRequest(req *model.CheckoutRequest) error {
	if req == nil {
		return model.NewValidationError("", "checkout request is nil")
	}

	if len(req.Items) == 0 {
		return model.NewValidationError("items", "order must contain at least one item")
	}

	if req.ShippingMethodID == "" {
		return model.NewValidationError("shippingMethodId", "a shipping method must be selected")
	}

	return nil
}
