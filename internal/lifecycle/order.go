package lifecycle

import (
	"fmt"
	"time"

	"storefront/internal/model"
)

var orderTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:    {model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusProcessing: {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:    {model.OrderStatusDelivered, model.OrderStatusCancelled},
}

// CanTransitionOrder reports whether an order may move between statuses.
func CanTransitionOrder(from, to model.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplyOrderStatus moves o to status, stamping the tracking timestamps that
// belong to the new status.
func ApplyOrderStatus(o *model.Order, status model.OrderStatus, now time.Time) error {
	if !CanTransitionOrder(o.Status, status) {
		return fmt.Errorf("%w: order %s -> %s", model.ErrInvalidTransition, o.Status, status)
	}

	switch status {
	case model.OrderStatusShipped:
		if o.Tracking == nil {
			o.Tracking = &model.Tracking{}
		}
		if o.Tracking.ShippedAt == nil {
			o.Tracking.ShippedAt = &now
		}
	case model.OrderStatusDelivered:
		if o.Tracking == nil {
			o.Tracking = &model.Tracking{}
		}
		o.Tracking.DeliveredAt = &now
	}

	o.Status = status
	o.UpdatedAt = now
	return nil
}

// CanSetPayment reports whether payment may move from one status to another.
// Refunds only follow a payment; a paid order cannot fall back to pending.
func CanSetPayment(from, to model.PaymentStatus) bool {
	if !to.Valid() || from == to {
		return false
	}
	switch from {
	case model.PaymentStatusPending:
		return to == model.PaymentStatusPaid || to == model.PaymentStatusFailed
	case model.PaymentStatusFailed:
		return to == model.PaymentStatusPaid || to == model.PaymentStatusPending
	case model.PaymentStatusPaid:
		return to == model.PaymentStatusRefunded
	}
	return false
}
