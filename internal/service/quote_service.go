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
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxConvertAttempts bounds how often Convert re-reads a quote whose status
// moved between the read and the conditional update.
const maxConvertAttempts = 3

var errStatusMoved = errors.New("quote status moved")

// quoteService implements QuoteService.
type quoteService struct {
	quoteRepo repository.QuoteRepository
	orderRepo repository.OrderRepository
	pricer    *cartPricer
	rates     *shippingRates
	numbers   NumberGenerator
	retry     Retrier
	now       func() time.Time
	logger    zerolog.Logger
}

// NewQuoteService creates a new quote service.
func NewQuoteService(
	quoteRepo repository.QuoteRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	shippingRepo repository.ShippingRepository,
	numbers NumberGenerator,
	retry Retrier,
	logger zerolog.Logger,
) QuoteService {
	logger = logger.With().Str("service", "quote").Logger()
	return &quoteService{
		quoteRepo: quoteRepo,
		orderRepo: orderRepo,
		pricer:    &cartPricer{products: productRepo, retry: retry, logger: logger},
		rates:     &shippingRates{methods: shippingRepo, retry: retry, logger: logger},
		numbers:   numbers,
		retry:     retry,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// Submit records a customer's quote request. Lines are priced from the
// catalogue where possible; the rest are stored at zero and flagged for staff.
func (s *quoteService) Submit(ctx context.Context, req *model.QuoteRequest) (*model.Quote, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, model.NewValidationError("items", "at least one item is required")
	}
	if req.Customer.Email == "" {
		return nil, model.NewValidationError("customer.email", "customer email is required")
	}

	cart, err := s.pricer.price(ctx, itemRequests(req.Items))
	if err != nil {
		return nil, err
	}

	shippingCost, err := s.rates.selected(ctx, cart, cart.subtotal(), req.ShippingMethodID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	quote := &model.Quote{
		ID:               uuid.New(),
		QuoteNumber:      s.numbers.QuoteNumber(),
		Status:           model.QuoteStatusPending,
		Items:            cart.items,
		ShippingMethodID: copyString(req.ShippingMethodID),
		Totals:           pricing.Recompute(cart.items, shippingCost).Rounded(),
		Customer:         req.Customer,
		Notes:            req.Notes,
		Files:            req.Files,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		s.logger.Error().Err(err).Str("quote_id", quote.ID.String()).Msg("failed to create quote")
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}

	s.logger.Info().
		Str("quote_id", quote.ID.String()).
		Str("quote_number", quote.QuoteNumber).
		Int("item_count", len(quote.Items)).
		Int("unpriced", len(cart.unpriced)).
		Msg("quote submitted")

	return quote, nil
}

// GetByID retrieves a quote with its lines.
func (s *quoteService) GetByID(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	quote, err := retryFetch(ctx, s.retry, s.logger, "quote", func(ctx context.Context) (*model.Quote, error) {
		return s.quoteRepo.GetByID(ctx, id)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("quote_id", id.String()).Msg("failed to get quote")
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	if quote == nil {
		s.logger.Debug().Str("quote_id", id.String()).Msg("quote not found")
		return nil, model.ErrQuoteNotFound
	}

	return quote, nil
}

// List retrieves quotes, optionally filtered by status.
func (s *quoteService) List(ctx context.Context, status model.QuoteStatus, limit, offset int) ([]model.Quote, error) {
	if status != "" && !status.Valid() {
		return nil, model.NewValidationError("status", fmt.Sprintf("unknown quote status %q", status))
	}
	limit, offset = clampPage(limit, offset)

	quotes, err := s.quoteRepo.List(ctx, status, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("status", string(status)).Msg("failed to list quotes")
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}

	return quotes, nil
}

// Update applies a staff edit. Lines carrying a unit price keep it; the rest
// are re-resolved from the catalogue. An explicit shipping cost overrides the
// computed one.
func (s *quoteService) Update(ctx context.Context, id uuid.UUID, req *model.QuoteUpdateRequest) (*model.Quote, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, model.NewValidationError("items", "at least one item is required")
	}

	quote, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !quote.Status.Editable() {
		return nil, fmt.Errorf("%w: quote is %s", model.ErrQuoteImmutable, quote.Status)
	}

	cart, err := s.pricer.price(ctx, itemRequests(req.Items))
	if err != nil {
		return nil, err
	}

	for i, itemReq := range req.Items {
		if itemReq.UnitPrice == nil {
			continue
		}
		price, err := decimal.NewFromString(*itemReq.UnitPrice)
		if err != nil {
			return nil, model.NewValidationError(fmt.Sprintf("items[%d].unitPrice", i), "must be a decimal number")
		}
		cart.items[i].UnitPrice = price
		cart.items[i].NeedsPricing = false
	}

	var shippingCost decimal.Decimal
	if req.ShippingCost != nil {
		shippingCost, err = decimal.NewFromString(*req.ShippingCost)
		if err != nil {
			return nil, model.NewValidationError("shippingCost", "must be a decimal number")
		}
	} else {
		subtotal := pricing.Recompute(cart.items, decimal.Zero).Subtotal
		shippingCost, err = s.rates.selected(ctx, cart, subtotal, req.ShippingMethodID)
		if err != nil {
			return nil, err
		}
	}

	quote.Items = cart.items
	quote.ShippingMethodID = copyString(req.ShippingMethodID)
	quote.ShippingCost = shippingCost
	quote.Notes = req.Notes

	return s.Save(ctx, quote)
}

// Save recomputes the totals of a locally edited quote and overwrites the
// stored one. Status is never written here.
func (s *quoteService) Save(ctx context.Context, quote *model.Quote) (*model.Quote, error) {
	if quote == nil {
		return nil, model.NewValidationError("", "quote is nil")
	}
	if err := pricing.ValidateLineItems(quote.Items); err != nil {
		return nil, err
	}
	if err := pricing.ValidateShippingCost(quote.ShippingCost); err != nil {
		return nil, err
	}

	quote.Totals = pricing.Recompute(quote.Items, quote.ShippingCost).Rounded()
	quote.UpdatedAt = s.now()

	if err := s.quoteRepo.Save(ctx, quote); err != nil {
		if errors.Is(err, model.ErrQuoteImmutable) || errors.Is(err, model.ErrQuoteNotFound) {
			s.logger.Warn().Err(err).Str("quote_id", quote.ID.String()).Msg("quote save rejected")
			return nil, err
		}
		s.logger.Error().Err(err).Str("quote_id", quote.ID.String()).Msg("failed to save quote")
		return nil, fmt.Errorf("failed to save quote: %w", err)
	}

	s.logger.Debug().
		Str("quote_id", quote.ID.String()).
		Str("total", quote.Total.StringFixed(2)).
		Msg("quote saved")

	return quote, nil
}

// Approve accepts a pending quote whose lines are all priced.
func (s *quoteService) Approve(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	return s.decide(ctx, id, model.QuoteStatusApproved, func(q *model.Quote) error {
		if q.HasUnpricedLines() {
			return model.ErrUnpricedQuoteLines
		}
		return nil
	})
}

// Reject declines a pending quote.
func (s *quoteService) Reject(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	return s.decide(ctx, id, model.QuoteStatusRejected, nil)
}

// decide applies a staff decision to a locked quote through the conditional
// status update.
func (s *quoteService) decide(ctx context.Context, id uuid.UUID, next model.QuoteStatus, check func(*model.Quote) error) (quote *model.Quote, err error) {
	tx, err := s.quoteRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update quote status: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	quote, err = s.lockQuote(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err = lifecycle.CheckQuoteTransition(quote.Status, next); err != nil {
		s.logger.Warn().
			Str("quote_id", id.String()).
			Str("from", string(quote.Status)).
			Str("to", string(next)).
			Msg("rejected quote status transition")
		return nil, err
	}

	if check != nil {
		if err = check(quote); err != nil {
			return nil, err
		}
	}

	ok, err := s.quoteRepo.SetStatusIfEqual(ctx, tx, id, quote.Status, next)
	if err != nil {
		return nil, fmt.Errorf("failed to update quote status: %w", err)
	}
	if !ok {
		return nil, model.ErrQuoteConflict
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to update quote status: %w", err)
	}

	s.logger.Info().
		Str("quote_id", id.String()).
		Str("from", string(quote.Status)).
		Str("to", string(next)).
		Msg("quote status updated")

	quote.Status = next
	return quote, nil
}

// Convert turns a pending or approved quote into an order. Of any number of
// concurrent or repeated calls exactly one creates an order; the others fail
// with ErrAlreadyConverted.
func (s *quoteService) Convert(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	for attempt := 1; attempt <= maxConvertAttempts; attempt++ {
		order, err := s.convertOnce(ctx, id)
		if errors.Is(err, errStatusMoved) {
			s.logger.Debug().
				Str("quote_id", id.String()).
				Int("attempt", attempt).
				Msg("quote status moved during conversion, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Info().
			Str("quote_id", id.String()).
			Str("order_id", order.ID.String()).
			Str("order_number", order.OrderNumber).
			Msg("quote converted to order")
		return order, nil
	}

	s.logger.Warn().Str("quote_id", id.String()).Msg("gave up converting a contended quote")
	return nil, model.ErrQuoteConflict
}

// convertOnce runs one conversion attempt inside a single transaction: the
// conditional status update, the order insert and the quote link commit or
// roll back together.
func (s *quoteService) convertOnce(ctx context.Context, id uuid.UUID) (order *model.Order, err error) {
	tx, err := s.quoteRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to convert quote: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	quote, err := s.lockQuote(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err = lifecycle.CheckQuoteConvertible(quote); err != nil {
		s.logger.Debug().
			Str("quote_id", id.String()).
			Str("status", string(quote.Status)).
			Msg("quote cannot be converted")
		return nil, err
	}

	ok, err := s.quoteRepo.SetStatusIfEqual(ctx, tx, id, quote.Status, model.QuoteStatusConverted)
	if err != nil {
		return nil, fmt.Errorf("failed to convert quote: %w", err)
	}
	if !ok {
		return nil, errStatusMoved
	}

	order = lifecycle.OrderFromQuote(quote, s.numbers.OrderNumber(), s.now())

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("quote_id", id.String()).Msg("failed to create order from quote")
		return nil, fmt.Errorf("failed to convert quote: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.ID, order.Items); err != nil {
		s.logger.Error().Err(err).Str("quote_id", id.String()).Msg("failed to create order items from quote")
		return nil, fmt.Errorf("failed to convert quote: %w", err)
	}

	if err = s.quoteRepo.LinkOrder(ctx, tx, id, order.ID); err != nil {
		return nil, fmt.Errorf("failed to convert quote: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("quote_id", id.String()).Msg("failed to commit conversion")
		return nil, fmt.Errorf("failed to convert quote: %w", err)
	}

	return order, nil
}

func (s *quoteService) lockQuote(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Quote, error) {
	quote, err := s.quoteRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("quote_id", id.String()).Msg("failed to lock quote")
		return nil, fmt.Errorf("failed to load quote: %w", err)
	}
	if quote == nil {
		return nil, model.ErrQuoteNotFound
	}
	return quote, nil
}

// itemRequests strips the staff-only fields from quote lines.
func itemRequests(items []model.QuoteItemRequest) []model.OrderItemRequest {
	out := make([]model.OrderItemRequest, len(items))
	for i, item := range items {
		out[i] = model.OrderItemRequest{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Customization: item.Customization,
		}
	}
	return out
}
