package service

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogService defines catalogue browsing and staff pricing operations.
type CatalogService interface {
	// GetAll retrieves products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product with its tiers and colours.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// ResolvePrice resolves the unit price of a product at quantity.
	ResolvePrice(ctx context.Context, productID string, quantity int) (*model.ResolvedPrice, error)

	// Budgets returns the configured "shop by price" bands.
	Budgets() []model.BudgetRange

	// BucketProducts returns one page of the products in budget index. A nil
	// seed shuffles at random; a seed gives the same order on every page.
	BucketProducts(ctx context.Context, index, limit, offset int, seed *uint64) ([]model.Product, error)

	// ReplaceTiers validates and stores a product's new tier table.
	ReplaceTiers(ctx context.Context, productID string, tiers []model.PriceTier) (*model.Product, error)
}

// ShippingService defines shipping rate operations.
type ShippingService interface {
	// QuoteShipping lists the shipping options available for the requested lines.
	QuoteShipping(ctx context.Context, items []model.OrderItemRequest) ([]model.ShippingQuote, error)
}

// OrderService defines cart pricing, checkout and order management operations.
type OrderService interface {
	// Preview prices a cart without persisting anything.
	Preview(ctx context.Context, req *model.CartRequest) (*model.CartSummary, error)

	// MinimumOrder checks subtotal against the store's minimum order value.
	MinimumOrder(ctx context.Context, subtotal decimal.Decimal) (*model.MinimumOrder, error)

	// SetMinimumOrder changes the store's minimum order value.
	SetMinimumOrder(ctx context.Context, value decimal.Decimal) error

	// Checkout places a direct order for fully priced lines.
	Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.Order, error)

	// GetByID retrieves an order by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// UpdateStatus moves an order along its fulfilment lifecycle.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error)

	// UpdatePaymentStatus changes an order's payment status.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) (*model.Order, error)

	// SetTracking records carrier tracking details on an order.
	SetTracking(ctx context.Context, id uuid.UUID, req *model.TrackingRequest) (*model.Order, error)
}

// QuoteService defines the quote lifecycle.
type QuoteService interface {
	// Submit records a customer's quote request.
	Submit(ctx context.Context, req *model.QuoteRequest) (*model.Quote, error)

	// GetByID retrieves a quote with its lines.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Quote, error)

	// List retrieves quotes, optionally filtered by status.
	List(ctx context.Context, status model.QuoteStatus, limit, offset int) ([]model.Quote, error)

	// Update applies a staff edit and saves the full quote.
	Update(ctx context.Context, id uuid.UUID, req *model.QuoteUpdateRequest) (*model.Quote, error)

	// Save recomputes the totals of a locally edited quote and stores it. Last write wins.
	Save(ctx context.Context, quote *model.Quote) (*model.Quote, error)

	// Approve accepts a pending quote whose lines are all priced.
	Approve(ctx context.Context, id uuid.UUID) (*model.Quote, error)

	// Reject declines a pending quote.
	Reject(ctx context.Context, id uuid.UUID) (*model.Quote, error)

	// Convert turns a pending or approved quote into an order, at most once.
	Convert(ctx context.Context, id uuid.UUID) (*model.Order, error)
}

// DraftService defines saved cart and quote-request drafts.
type DraftService interface {
	// Save replaces the owner's draft of the given kind.
	Save(ctx context.Context, ownerID string, kind model.DraftKind, req *model.DraftRequest) (*model.Draft, error)

	// Load retrieves the owner's draft with recomputed totals.
	Load(ctx context.Context, ownerID string, kind model.DraftKind) (*model.Draft, error)
}

// NumberGenerator issues quote and order numbers.
type NumberGenerator interface {
	QuoteNumber() string
	OrderNumber() string
}
