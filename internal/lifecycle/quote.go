// Package lifecycle defines the allowed status transitions of quotes and
// orders and the copy made when a quote becomes an order.
package lifecycle

import (
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
)

var quoteTransitions = map[model.QuoteStatus][]model.QuoteStatus{
	model.QuoteStatusPending:  {model.QuoteStatusApproved, model.QuoteStatusRejected, model.QuoteStatusConverted},
	model.QuoteStatusApproved: {model.QuoteStatusConverted},
}

// CanTransitionQuote reports whether a quote may move from one status to another.
// Rejected and converted are terminal.
func CanTransitionQuote(from, to model.QuoteStatus) bool {
	for _, next := range quoteTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckQuoteTransition returns the error a caller should surface for a
// disallowed quote transition, or nil.
func CheckQuoteTransition(from, to model.QuoteStatus) error {
	if CanTransitionQuote(from, to) {
		return nil
	}
	if to == model.QuoteStatusConverted {
		return CheckConvertible(from)
	}
	if from == model.QuoteStatusConverted {
		return model.ErrAlreadyConverted
	}
	return fmt.Errorf("%w: quote %s -> %s", model.ErrInvalidState, from, to)
}

// CheckConvertible reports why a quote in status cannot be converted, or nil
// when it can.
func CheckConvertible(status model.QuoteStatus) error {
	switch status {
	case model.QuoteStatusConverted:
		return model.ErrAlreadyConverted
	case model.QuoteStatusPending, model.QuoteStatusApproved:
		return nil
	default:
		return fmt.Errorf("%w: quote is %s", model.ErrInvalidState, status)
	}
}

// CheckQuoteConvertible extends CheckConvertible with the line check: a quote
// still carrying a line that awaits a staff price never becomes an order.
func CheckQuoteConvertible(q *model.Quote) error {
	if err := CheckConvertible(q.Status); err != nil {
		return err
	}
	if q.HasUnpricedLines() {
		return model.ErrUnpricedQuoteLines
	}
	return nil
}

// OrderFromQuote builds the pending order a quote converts into. Line items
// are deep-copied under fresh ids so the quote and the order never share one;
// totals are carried over as they stand on the quote.
func OrderFromQuote(q *model.Quote, orderNumber string, now time.Time) *model.Order {
	orderID := uuid.New()
	quoteID := q.ID

	var shippingMethodID *string
	if q.ShippingMethodID != nil {
		id := *q.ShippingMethodID
		shippingMethodID = &id
	}

	return &model.Order{
		ID:               orderID,
		OrderNumber:      orderNumber,
		Status:           model.OrderStatusPending,
		PaymentStatus:    model.PaymentStatusPending,
		Items:            model.CloneLineItems(q.Items),
		ShippingMethodID: shippingMethodID,
		Totals:           q.Totals,
		Customer:         q.Customer,
		SourceQuoteID:    &quoteID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
