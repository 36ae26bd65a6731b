package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// draftService implements DraftService.
type draftService struct {
	draftRepo repository.DraftRepository
	pricer    *cartPricer
	rates     *shippingRates
	logger    zerolog.Logger
}

// NewDraftService creates a new draft service.
func NewDraftService(
	draftRepo repository.DraftRepository,
	productRepo repository.ProductRepository,
	shippingRepo repository.ShippingRepository,
	retry Retrier,
	logger zerolog.Logger,
) DraftService {
	logger = logger.With().Str("service", "draft").Logger()
	return &draftService{
		draftRepo: draftRepo,
		pricer:    &cartPricer{products: productRepo, retry: retry, logger: logger},
		rates:     &shippingRates{methods: shippingRepo, retry: retry, logger: logger},
		logger:    logger,
	}
}

// Save replaces the owner's draft of the given kind. The whole draft is
// written; the most recent save wins.
func (s *draftService) Save(ctx context.Context, ownerID string, kind model.DraftKind, req *model.DraftRequest) (*model.Draft, error) {
	if err := validateDraftKey(ownerID, kind); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.NewValidationError("", "draft request is nil")
	}

	draft := &model.Draft{
		OwnerID:          ownerID,
		Kind:             kind,
		ShippingMethodID: copyString(req.ShippingMethodID),
		UpdatedAt:        time.Now().UTC(),
	}
	if err := s.price(ctx, draft, req.Items); err != nil {
		return nil, err
	}

	if err := s.draftRepo.Save(ctx, draft); err != nil {
		s.logger.Error().Err(err).Str("owner_id", ownerID).Str("kind", string(kind)).Msg("failed to save draft")
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	return draft, nil
}

// Load retrieves the owner's draft. Its lines are re-priced against the
// current catalogue and its totals recomputed. Lines whose product is gone are
// dropped and listed in RemovedProductIDs.
func (s *draftService) Load(ctx context.Context, ownerID string, kind model.DraftKind) (*model.Draft, error) {
	if err := validateDraftKey(ownerID, kind); err != nil {
		return nil, err
	}

	draft, err := s.draftRepo.Get(ctx, ownerID, kind)
	if err != nil {
		s.logger.Error().Err(err).Str("owner_id", ownerID).Str("kind", string(kind)).Msg("failed to load draft")
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	if draft == nil {
		return nil, model.ErrDraftNotFound
	}

	reqs := make([]model.OrderItemRequest, len(draft.Items))
	for i, item := range draft.Items {
		reqs[i] = model.OrderItemRequest{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Customization: item.Customization,
		}
	}

	cart := &pricedCart{}
	if len(reqs) > 0 {
		var dropped []string
		cart, dropped, err = s.pricer.priceAvailable(ctx, reqs)
		if err != nil {
			return nil, err
		}
		if len(dropped) > 0 {
			s.logger.Info().
				Str("owner_id", ownerID).
				Str("kind", string(kind)).
				Strs("product_ids", dropped).
				Msg("draft lines dropped for products no longer sold")
			draft.RemovedProductIDs = dropped
		}
	}

	if err := s.fill(ctx, draft, cart); err != nil {
		return nil, err
	}

	return draft, nil
}

// price resolves reqs against the catalogue and fills the draft with them.
func (s *draftService) price(ctx context.Context, draft *model.Draft, reqs []model.OrderItemRequest) error {
	if len(reqs) == 0 {
		return s.fill(ctx, draft, &pricedCart{})
	}

	cart, err := s.pricer.price(ctx, reqs)
	if err != nil {
		return err
	}
	return s.fill(ctx, draft, cart)
}

// fill sets the draft's lines and totals from cart. A shipping choice the cart
// no longer qualifies for is kept but costs nothing until the customer picks again.
func (s *draftService) fill(ctx context.Context, draft *model.Draft, cart *pricedCart) error {
	if len(cart.items) == 0 {
		draft.Items = []model.LineItem{}
		draft.Totals = pricing.Recompute(nil, decimal.Zero).Rounded()
		return nil
	}

	shippingCost, err := s.rates.selected(ctx, cart, cart.subtotal(), draft.ShippingMethodID)
	if err != nil {
		if !errors.Is(err, model.ErrShippingNotEligible) {
			return err
		}
		s.logger.Debug().
			Str("owner_id", draft.OwnerID).
			Str("shipping_method_id", *draft.ShippingMethodID).
			Msg("draft shipping choice no longer eligible")
		shippingCost = decimal.Zero
	}

	draft.Items = cart.items
	draft.Totals = pricing.Recompute(cart.items, shippingCost).Rounded()
	return nil
}

func validateDraftKey(ownerID string, kind model.DraftKind) error {
	if ownerID == "" {
		return model.NewValidationError("owner", "owner is required")
	}
	if !kind.Valid() {
		return model.NewValidationError("kind", fmt.Sprintf("unknown draft kind %q", kind))
	}
	return nil
}
