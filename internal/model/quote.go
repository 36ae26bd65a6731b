package model

import (
	"time"

	"github.com/google/uuid"
)

// QuoteStatus is the lifecycle state of a quote.
type QuoteStatus string

const (
	QuoteStatusPending   QuoteStatus = "pending"
	QuoteStatusApproved  QuoteStatus = "approved"
	QuoteStatusRejected  QuoteStatus = "rejected"
	QuoteStatusConverted QuoteStatus = "converted"
)

// Valid reports whether s is a known quote status.
func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusApproved, QuoteStatusRejected, QuoteStatusConverted:
		return true
	}
	return false
}

// Editable reports whether staff may still change the quote contents.
func (s QuoteStatus) Editable() bool {
	return s == QuoteStatusPending || s == QuoteStatusApproved
}

// Customer is the contact snapshot captured with a quote or order.
type Customer struct {
	Name    string `json:"name" db:"customer_name"`
	Email   string `json:"email" db:"customer_email"`
	Phone   string `json:"phone,omitempty" db:"customer_phone"`
	Company string `json:"company,omitempty" db:"customer_company"`
}

// QuoteFile references an artwork or brief the customer attached to a quote.
type QuoteFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Quote is a customer-specific pre-order awaiting staff approval.
type Quote struct {
	ID               uuid.UUID   `json:"id" db:"id"`
	QuoteNumber      string      `json:"quoteNumber" db:"quote_number"`
	Status           QuoteStatus `json:"status" db:"status"`
	Items            []LineItem  `json:"items"`
	ShippingMethodID *string     `json:"shippingMethodId,omitempty" db:"shipping_method_id"`
	Totals
	Customer         Customer    `json:"customer"`
	Notes            string      `json:"notes,omitempty" db:"notes"`
	Files            []QuoteFile `json:"files,omitempty" db:"files"`
	ConvertedOrderID *uuid.UUID  `json:"convertedOrderId,omitempty" db:"converted_order_id"`
	CreatedAt        time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time   `json:"updatedAt" db:"updated_at"`
}

// HasUnpricedLines reports whether any line still awaits a staff price.
func (q *Quote) HasUnpricedLines() bool {
	for _, item := range q.Items {
		if item.NeedsPricing {
			return true
		}
	}
	return false
}

// QuoteItemRequest is one requested line of a quote submission or edit.
type QuoteItemRequest struct {
	ProductID     string  `json:"productId" validate:"required"`
	Quantity      int     `json:"quantity" validate:"gte=1,lte=1000000"`
	UnitPrice     *string `json:"unitPrice,omitempty" validate:"omitempty,numeric"`
	Customization *string `json:"customization,omitempty" validate:"omitempty,max=2000"`
}

// QuoteRequest is the customer's quote submission payload.
type QuoteRequest struct {
	Items            []QuoteItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingMethodID *string            `json:"shippingMethodId,omitempty"`
	Customer         Customer           `json:"customer"`
	Notes            string             `json:"notes,omitempty" validate:"max=4000"`
	Files            []QuoteFile        `json:"files,omitempty" validate:"dive"`
}

// QuoteUpdateRequest is a staff edit replacing the editable state of a quote.
type QuoteUpdateRequest struct {
	Items            []QuoteItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingMethodID *string            `json:"shippingMethodId,omitempty"`
	ShippingCost     *string            `json:"shippingCost,omitempty" validate:"omitempty,numeric"`
	Notes            string             `json:"notes,omitempty" validate:"max=4000"`
}
