package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Order represents a binding customer order.
type Order struct {
	ID               uuid.UUID     `json:"id" db:"id"`
	OrderNumber      string        `json:"orderNumber" db:"order_number"`
	Status           OrderStatus   `json:"status" db:"status"`
	PaymentStatus    PaymentStatus `json:"paymentStatus" db:"payment_status"`
	Items            []LineItem    `json:"items"`
	ShippingMethodID *string       `json:"shippingMethodId,omitempty" db:"shipping_method_id"`
	Totals
	Customer      Customer   `json:"customer"`
	SourceQuoteID *uuid.UUID `json:"sourceQuoteId,omitempty" db:"source_quote_id"`
	Tracking      *Tracking  `json:"tracking,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// Tracking records shipment progress of an order.
type Tracking struct {
	Carrier           string     `json:"carrier" db:"carrier"`
	TrackingNumber    string     `json:"trackingNumber" db:"tracking_number"`
	TrackingURL       string     `json:"trackingUrl,omitempty" db:"tracking_url"`
	ShippedAt         *time.Time `json:"shippedAt,omitempty" db:"shipped_at"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty" db:"estimated_delivery"`
	DeliveredAt       *time.Time `json:"deliveredAt,omitempty" db:"delivered_at"`
	Notes             string     `json:"notes,omitempty" db:"notes"`
}

// OrderItemRequest represents a single item in a checkout request.
type OrderItemRequest struct {
	ProductID     string  `json:"productId" validate:"required"`
	Quantity      int     `json:"quantity" validate:"gte=1,lte=1000000"`
	Customization *string `json:"customization,omitempty" validate:"omitempty,max=2000"`
}

// CheckoutRequest represents the request payload for a direct order.
type CheckoutRequest struct {
	Items            []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingMethodID string             `json:"shippingMethodId" validate:"required"`
	Customer         Customer           `json:"customer"`
}

// OrderStatusRequest changes an order's fulfilment status.
type OrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}

// PaymentStatusRequest changes an order's payment status.
type PaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"paymentStatus" validate:"required"`
}

// TrackingRequest sets or replaces an order's tracking record.
type TrackingRequest struct {
	Carrier           string     `json:"carrier" validate:"required"`
	TrackingNumber    string     `json:"trackingNumber" validate:"required"`
	TrackingURL       string     `json:"trackingUrl,omitempty" validate:"omitempty,url"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}
