package service

import (
	"context"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// shippingService implements ShippingService.
type shippingService struct {
	pricer *cartPricer
	rates  *shippingRates
	logger zerolog.Logger
}

// NewShippingService creates a new shipping service.
func NewShippingService(
	productRepo repository.ProductRepository,
	shippingRepo repository.ShippingRepository,
	retry Retrier,
	logger zerolog.Logger,
) ShippingService {
	logger = logger.With().Str("service", "shipping").Logger()
	return &shippingService{
		pricer: &cartPricer{products: productRepo, retry: retry, logger: logger},
		rates:  &shippingRates{methods: shippingRepo, retry: retry, logger: logger},
		logger: logger,
	}
}

// QuoteShipping lists the shipping options for the requested lines. The
// subtotal deciding free shipping counts priced lines only.
func (s *shippingService) QuoteShipping(ctx context.Context, items []model.OrderItemRequest) ([]model.ShippingQuote, error) {
	if len(items) == 0 {
		return nil, model.NewValidationError("items", "at least one item is required")
	}

	cart, err := s.pricer.price(ctx, items)
	if err != nil {
		return nil, err
	}

	quotes, err := s.rates.options(ctx, cart, cart.subtotal())
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int("options", len(quotes)).Msg("quoted shipping")
	return quotes, nil
}
