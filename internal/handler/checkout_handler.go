package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CheckoutHandler serves the pricing steps leading up to an order: shipping
// options, cart totals and the minimum order value.
type CheckoutHandler struct {
	orders   service.OrderService
	shipping service.ShippingService
	logger   zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(orders service.OrderService, shipping service.ShippingService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		orders:   orders,
		shipping: shipping,
		logger:   logger.With().Str("handler", "checkout").Logger(),
	}
}

// QuoteShipping handles POST /api/shipping/quote.
func (h *CheckoutHandler) QuoteShipping(w http.ResponseWriter, r *http.Request) {
	var req model.CartRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	options, err := h.shipping.QuoteShipping(r.Context(), req.Items)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, options)
}

// Totals handles POST /api/totals.
func (h *CheckoutHandler) Totals(w http.ResponseWriter, r *http.Request) {
	var req model.CartRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	summary, err := h.orders.Preview(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// MinimumOrder handles GET /api/checkout/minimum?subtotal=.
func (h *CheckoutHandler) MinimumOrder(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("subtotal")
	if raw == "" {
		raw = "0"
	}
	subtotal, err := parseMoney("subtotal", raw)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result, err := h.orders.MinimumOrder(r.Context(), subtotal)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// SetMinimumOrder handles PUT /api/checkout/minimum.
func (h *CheckoutHandler) SetMinimumOrder(w http.ResponseWriter, r *http.Request) {
	var req model.MinimumOrderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	value, err := parseMoney("minimumOrderValue", req.MinimumOrderValue)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.orders.SetMinimumOrder(r.Context(), value); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result, err := h.orders.MinimumOrder(r.Context(), value)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
