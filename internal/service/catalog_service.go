package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// catalogService implements CatalogService.
type catalogService struct {
	productRepo   repository.ProductRepository
	budgets       []model.BudgetRange
	cache         *PriceCache
	seededShuffle bool
	retry         Retrier
	logger        zerolog.Logger
}

// NewCatalogService creates a new catalogue service. When seededShuffle is
// false, budget pages are shuffled at random even if a seed is supplied.
func NewCatalogService(
	productRepo repository.ProductRepository,
	budgets []model.BudgetRange,
	cache *PriceCache,
	seededShuffle bool,
	retry Retrier,
	logger zerolog.Logger,
) CatalogService {
	return &catalogService{
		productRepo:   productRepo,
		budgets:       budgets,
		cache:         cache,
		seededShuffle: seededShuffle,
		retry:         retry,
		logger:        logger.With().Str("service", "catalog").Logger(),
	}
}

// GetAll retrieves products with pagination.
func (s *catalogService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	limit, offset = clampPage(limit, offset)

	products, err := retryFetch(ctx, s.retry, s.logger, "products", func(ctx context.Context) ([]model.Product, error) {
		return s.productRepo.GetAll(ctx, limit, offset)
	})
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *catalogService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		s.logger.Warn().Msg("product ID is empty")
		return nil, model.ErrProductNotFound
	}

	product, err := retryFetch(ctx, s.retry, s.logger, "product", func(ctx context.Context) (*model.Product, error) {
		return s.productRepo.GetByID(ctx, id)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// ResolvePrice resolves the unit price of a product at quantity, through the cache.
func (s *catalogService) ResolvePrice(ctx context.Context, productID string, quantity int) (*model.ResolvedPrice, error) {
	if quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}

	price, ok := s.cache.Get(productID, quantity)
	if !ok {
		generation := s.cache.Generation(productID)
		product, err := s.GetByID(ctx, productID)
		if err != nil {
			return nil, err
		}

		price, err = pricing.ResolveProduct(product, quantity)
		if err != nil {
			if errors.Is(err, model.ErrTierOverlap) {
				s.logger.Error().
					Err(err).
					Str("product_id", productID).
					Msg("product has a corrupt tier table")
			}
			return nil, err
		}
		if !s.cache.PutIfCurrent(productID, quantity, generation, price) {
			s.logger.Debug().Str("product_id", productID).Msg("price not cached, tiers changed while resolving")
		}
	}

	resolved := &model.ResolvedPrice{
		ProductID: productID,
		Quantity:  quantity,
		Quoted:    price.Quoted,
	}
	if !price.Quoted {
		unit := price.Amount
		total := unit.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
		resolved.UnitPrice = &unit
		resolved.LineTotal = &total
	}

	return resolved, nil
}

// Budgets returns the configured "shop by price" bands.
func (s *catalogService) Budgets() []model.BudgetRange {
	out := make([]model.BudgetRange, len(s.budgets))
	copy(out, s.budgets)
	return out
}

// BucketProducts returns one page of the products in budget index.
func (s *catalogService) BucketProducts(ctx context.Context, index, limit, offset int, seed *uint64) ([]model.Product, error) {
	if _, _, err := pricing.BudgetBounds(s.budgets, index); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)

	catalog, err := retryFetch(ctx, s.retry, s.logger, "catalog", s.productRepo.ListCatalog)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list catalogue")
		return nil, fmt.Errorf("failed to list catalogue: %w", err)
	}

	shuffle := pricing.Shuffler(pricing.RandomShuffle)
	if seed != nil && s.seededShuffle {
		shuffle = pricing.SeededShuffle(*seed)
	}

	products, err := pricing.BucketProducts(catalog, s.budgets, index, shuffle)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int("budget", index).
		Int("matches", len(products)).
		Msg("bucketed products")

	if offset >= len(products) {
		return []model.Product{}, nil
	}
	end := offset + limit
	if end > len(products) {
		end = len(products)
	}
	return products[offset:end], nil
}

// ReplaceTiers validates and stores a product's new tier table.
func (s *catalogService) ReplaceTiers(ctx context.Context, productID string, tiers []model.PriceTier) (*model.Product, error) {
	table, err := pricing.NewTierTable(tiers)
	if err != nil {
		s.logger.Warn().Err(err).Str("product_id", productID).Msg("rejected tier table")
		return nil, err
	}

	if err := s.productRepo.ReplaceTiers(ctx, productID, table); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to replace tiers: %w", err)
	}
	s.cache.Invalidate(productID)

	s.logger.Info().
		Str("product_id", productID).
		Int("tiers", len(table)).
		Msg("tier table replaced")

	return s.GetByID(ctx, productID)
}

// clampPage bounds pagination parameters.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
