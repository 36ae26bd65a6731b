package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// pricedCart is a set of requested lines resolved against the catalogue.
type pricedCart struct {
	items    []model.LineItem
	weights  map[string]int
	unpriced []string
}

// subtotal returns the unrounded sum of the line totals.
func (c *pricedCart) subtotal() decimal.Decimal {
	return pricing.Recompute(c.items, decimal.Zero).Subtotal
}

// cartPricer turns requested lines into priced line items.
type cartPricer struct {
	products repository.ProductRepository
	retry    Retrier
	logger   zerolog.Logger
}

// price resolves every requested line at its quantity. Lines without a usable
// price get a zero unit price and NeedsPricing; their product ids are listed
// in unpriced.
func (p *cartPricer) price(ctx context.Context, reqs []model.OrderItemRequest) (*pricedCart, error) {
	if err := validateItemRequests(reqs); err != nil {
		p.logger.Warn().Err(err).Msg("invalid cart lines")
		return nil, err
	}

	products, err := p.load(ctx, reqs)
	if err != nil {
		return nil, err
	}

	return p.build(reqs, products)
}

// priceAvailable is price for lines saved earlier: lines whose product has
// since left the catalogue are dropped instead of failing the cart. The
// distinct dropped product ids are returned alongside the cart.
func (p *cartPricer) priceAvailable(ctx context.Context, reqs []model.OrderItemRequest) (*pricedCart, []string, error) {
	if err := validateItemRequests(reqs); err != nil {
		p.logger.Warn().Err(err).Msg("invalid cart lines")
		return nil, nil, err
	}

	products, ids, err := p.fetch(ctx, reqs)
	if err != nil {
		return nil, nil, err
	}

	var dropped []string
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			p.logger.Warn().Str("product_id", id).Msg("dropping line for product no longer in catalogue")
			dropped = append(dropped, id)
		}
	}

	kept := make([]model.OrderItemRequest, 0, len(reqs))
	for _, req := range reqs {
		if _, ok := products[req.ProductID]; ok {
			kept = append(kept, req)
		}
	}

	cart, err := p.build(kept, products)
	if err != nil {
		return nil, nil, err
	}
	return cart, dropped, nil
}

// build prices reqs against products, which must hold every requested id.
func (p *cartPricer) build(reqs []model.OrderItemRequest, products map[string]*model.Product) (*pricedCart, error) {
	cart := &pricedCart{
		items:   make([]model.LineItem, 0, len(reqs)),
		weights: make(map[string]int, len(products)),
	}
	for i, req := range reqs {
		product := products[req.ProductID]
		cart.weights[product.ID] = product.WeightGram

		price, err := pricing.ResolveProduct(product, req.Quantity)
		if err != nil {
			if errors.Is(err, model.ErrTierOverlap) {
				p.logger.Error().
					Err(err).
					Str("product_id", product.ID).
					Int("quantity", req.Quantity).
					Msg("product has a corrupt tier table")
			}
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		item := model.LineItem{
			ID:            uuid.New(),
			ProductID:     product.ID,
			ProductName:   product.Name,
			Quantity:      req.Quantity,
			UnitPrice:     price.Amount,
			Customization: copyString(req.Customization),
			NeedsPricing:  price.Quoted,
		}
		item.Recalculate()
		cart.items = append(cart.items, item)

		if price.Quoted {
			cart.unpriced = append(cart.unpriced, product.ID)
		}
	}

	return cart, nil
}

// load fetches the distinct products referenced by reqs. Any missing product
// fails the whole cart.
func (p *cartPricer) load(ctx context.Context, reqs []model.OrderItemRequest) (map[string]*model.Product, error) {
	byID, ids, err := p.fetch(ctx, reqs)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			p.logger.Warn().Str("product_id", id).Msg("requested product does not exist")
			return nil, fmt.Errorf("%w: %s", model.ErrProductNotFound, id)
		}
	}
	return byID, nil
}

// fetch loads the distinct products referenced by reqs, keyed by id, along
// with the distinct ids in request order. Unknown ids are absent from the map.
func (p *cartPricer) fetch(ctx context.Context, reqs []model.OrderItemRequest) (map[string]*model.Product, []string, error) {
	ids := make([]string, 0, len(reqs))
	seen := make(map[string]bool, len(reqs))
	for _, req := range reqs {
		if !seen[req.ProductID] {
			seen[req.ProductID] = true
			ids = append(ids, req.ProductID)
		}
	}

	products, err := retryFetch(ctx, p.retry, p.logger, "products", func(ctx context.Context) ([]model.Product, error) {
		return p.products.GetByIDs(ctx, ids)
	})
	if err != nil {
		p.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to load products")
		return nil, nil, fmt.Errorf("failed to load products: %w", err)
	}

	byID := make(map[string]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, ids, nil
}

func validateItemRequests(reqs []model.OrderItemRequest) error {
	for i, req := range reqs {
		if req.ProductID == "" {
			return model.NewValidationError(fmt.Sprintf("items[%d].productId", i), "product ID is required")
		}
		if req.Quantity < 1 {
			return fmt.Errorf("items[%d]: %w", i, model.ErrInvalidQuantity)
		}
	}
	return nil
}

// shippingRates computes the shipping options of a priced cart.
type shippingRates struct {
	methods repository.ShippingRepository
	retry   Retrier
	logger  zerolog.Logger
}

// options lists the eligible shipping methods for cart at subtotal, cheapest first.
func (r *shippingRates) options(ctx context.Context, cart *pricedCart, subtotal decimal.Decimal) ([]model.ShippingQuote, error) {
	weight, err := pricing.ShipmentWeight(cart.items, cart.weights)
	if err != nil {
		return nil, err
	}

	methods, err := retryFetch(ctx, r.retry, r.logger, "shipping_methods", r.methods.List)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to load shipping methods")
		return nil, fmt.Errorf("failed to load shipping methods: %w", err)
	}

	quotes, err := pricing.QuoteShipping(methods, weight, subtotal)
	if err != nil {
		r.logger.Warn().
			Int("weight_grams", weight).
			Str("subtotal", subtotal.StringFixed(2)).
			Msg("no shipping method covers the shipment")
		return nil, err
	}

	return quotes, nil
}

// selected returns the cost of methodID for cart. A nil methodID means no
// shipping has been chosen yet and costs nothing.
func (r *shippingRates) selected(ctx context.Context, cart *pricedCart, subtotal decimal.Decimal, methodID *string) (decimal.Decimal, error) {
	if methodID == nil || *methodID == "" {
		return decimal.Zero, nil
	}

	quotes, err := r.options(ctx, cart, subtotal)
	if err != nil {
		if errors.Is(err, model.ErrNoShippingAvailable) {
			return decimal.Zero, fmt.Errorf("%w: %s", model.ErrShippingNotEligible, *methodID)
		}
		return decimal.Zero, err
	}

	choice, err := pricing.SelectShipping(quotes, *methodID)
	if err != nil {
		return decimal.Zero, err
	}
	return choice.Cost, nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
