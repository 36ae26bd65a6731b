package repository

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for catalogue data access operations.
// Products are returned with their price tiers sorted by quantity_min.
type ProductRepository interface {
	// GetAll retrieves products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product with tiers and colour variants.
	// Returns nil, nil when the product does not exist.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// ListCatalog retrieves the whole catalogue, used for budget bucketing.
	ListCatalog(ctx context.Context) ([]model.Product, error)

	// ReplaceTiers atomically replaces the tier table of a product.
	ReplaceTiers(ctx context.Context, productID string, tiers []model.PriceTier) error

	// ReplaceTiersBySKU atomically replaces the tier table of the product with
	// the given SKU and returns its ID.
	ReplaceTiersBySKU(ctx context.Context, sku string, tiers []model.PriceTier) (string, error)
}

// ShippingRepository defines the interface for shipping method data access.
type ShippingRepository interface {
	// List retrieves every configured shipping method ordered by position.
	List(ctx context.Context) ([]model.ShippingMethod, error)
}

// SettingsRepository defines the interface for store-wide settings.
type SettingsRepository interface {
	// MinimumOrderValue returns the configured minimum order subtotal; zero disables the check.
	MinimumOrderValue(ctx context.Context) (decimal.Decimal, error)

	// SetMinimumOrderValue stores a new minimum order subtotal.
	SetMinimumOrderValue(ctx context.Context, value decimal.Decimal) error
}

// QuoteRepository defines the interface for quote data access operations.
type QuoteRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts a new quote with its items.
	Create(ctx context.Context, quote *model.Quote) error

	// GetByID retrieves a quote with its items. Returns nil, nil when missing.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Quote, error)

	// GetByIDForUpdate retrieves and row-locks a quote within tx, so its
	// contents cannot change until tx ends. Returns nil, nil when missing.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Quote, error)

	// List retrieves quote headers, newest first, optionally filtered by status.
	List(ctx context.Context, status model.QuoteStatus, limit, offset int) ([]model.Quote, error)

	// Save overwrites the editable state of a quote (items, shipping, totals,
	// notes). Last write wins. Fails with ErrQuoteImmutable once the quote is
	// rejected or converted.
	Save(ctx context.Context, quote *model.Quote) error

	// SetStatusIfEqual moves the quote from expected to next within tx and
	// reports whether the row was in the expected state.
	SetStatusIfEqual(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.QuoteStatus) (bool, error)

	// LinkOrder records the order a quote was converted into.
	LinkOrder(ctx context.Context, tx pgx.Tx, quoteID, orderID uuid.UUID) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts the order's line items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []model.LineItem) error

	// GetByID retrieves an order with its items. Returns nil, nil when missing.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// UpdateStatus writes order.Status and its shipment timestamps if the stored
	// status still equals expected.
	UpdateStatus(ctx context.Context, order *model.Order, expected model.OrderStatus) (bool, error)

	// UpdatePaymentStatus moves the payment status from expected to next.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, expected, next model.PaymentStatus) (bool, error)

	// SetTracking replaces the tracking details of an order.
	SetTracking(ctx context.Context, id uuid.UUID, tracking *model.Tracking) error
}

// DraftRepository defines the interface for saved carts and quote requests.
type DraftRepository interface {
	// Save upserts the owner's draft of the given kind, bumping its version.
	// On return draft carries the stored ID, Version and UpdatedAt.
	Save(ctx context.Context, draft *model.Draft) error

	// Get retrieves the owner's draft of the given kind. Returns nil, nil when missing.
	Get(ctx context.Context, ownerID string, kind model.DraftKind) (*model.Draft, error)
}
