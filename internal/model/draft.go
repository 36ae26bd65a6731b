package model

import (
	"time"

	"github.com/google/uuid"
)

// DraftKind distinguishes a shopping-cart draft from a quote-request draft.
type DraftKind string

const (
	DraftKindCart  DraftKind = "cart"
	DraftKindQuote DraftKind = "quote"
)

// Valid reports whether k is a known draft kind.
func (k DraftKind) Valid() bool {
	return k == DraftKindCart || k == DraftKindQuote
}

// Draft is a customer's saved cart or quote request, surviving across sessions.
// Every save replaces the whole draft and increments Version.
type Draft struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	OwnerID          string     `json:"ownerId" db:"owner_id"`
	Kind             DraftKind  `json:"kind" db:"kind"`
	Version          int64      `json:"version" db:"version"`
	Items            []LineItem `json:"items" db:"items"`
	ShippingMethodID *string    `json:"shippingMethodId,omitempty" db:"shipping_method_id"`
	Totals           Totals     `json:"totals"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at"`

	// RemovedProductIDs lists products whose lines were dropped on load
	// because they left the catalogue. It is never stored.
	RemovedProductIDs []string `json:"removedProductIds,omitempty" db:"-"`
}

// DraftRequest is the payload saving a draft.
type DraftRequest struct {
	Items            []OrderItemRequest `json:"items" validate:"dive"`
	ShippingMethodID *string            `json:"shippingMethodId,omitempty"`
}
