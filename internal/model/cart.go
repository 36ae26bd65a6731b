package model

import "github.com/shopspring/decimal"

// ResolvedPrice is the unit price of a product at a quantity. UnitPrice is
// nil when the product must be quoted on request.
type ResolvedPrice struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
	LineTotal *decimal.Decimal `json:"lineTotal,omitempty"`
	Quoted    bool             `json:"quoted"`
}

// CartRequest is a set of requested lines with an optional shipping choice.
type CartRequest struct {
	Items            []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingMethodID *string            `json:"shippingMethodId,omitempty"`
}

// CartSummary is the priced view of a cart: its lines, the selectable
// shipping options, totals and the minimum-order check.
type CartSummary struct {
	Items           []LineItem      `json:"items"`
	ShippingOptions []ShippingQuote `json:"shippingOptions"`
	Totals          Totals          `json:"totals"`
	MinimumOrder    MinimumOrder    `json:"minimumOrder"`
	NeedsQuote      bool            `json:"needsQuote"`
}

// TierRequest is one row of a staff tier-table replacement.
type TierRequest struct {
	QuantityMin int    `json:"quantityMin" validate:"gte=1"`
	QuantityMax *int   `json:"quantityMax,omitempty" validate:"omitempty,gte=1"`
	UnitPrice   string `json:"unitPrice" validate:"required,numeric"`
}

// TiersRequest replaces the whole tier table of a product.
type TiersRequest struct {
	Tiers []TierRequest `json:"tiers" validate:"dive"`
}

// MinimumOrderRequest sets the store's minimum order subtotal.
type MinimumOrderRequest struct {
	MinimumOrderValue string `json:"minimumOrderValue" validate:"required,numeric"`
}
