package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Products *handler.ProductHandler
	Checkout *handler.CheckoutHandler
	Orders   *handler.OrderHandler
	Quotes   *handler.QuoteHandler
	Drafts   *handler.DraftHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, apiKey string, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("GET /api/products", h.Products.GetAll)
	mux.HandleFunc("GET /api/products/{id}", h.Products.GetByID)
	mux.HandleFunc("GET /api/products/{id}/price", h.Products.ResolvePrice)
	mux.HandleFunc("PUT /api/products/{id}/tiers", h.Products.ReplaceTiers)
	mux.HandleFunc("GET /api/budgets", h.Products.Budgets)
	mux.HandleFunc("GET /api/budgets/{index}/products", h.Products.BudgetProducts)

	mux.HandleFunc("POST /api/shipping/quote", h.Checkout.QuoteShipping)
	mux.HandleFunc("POST /api/totals", h.Checkout.Totals)
	mux.HandleFunc("GET /api/checkout/minimum", h.Checkout.MinimumOrder)
	mux.HandleFunc("PUT /api/checkout/minimum", h.Checkout.SetMinimumOrder)

	mux.HandleFunc("POST /api/orders", h.Orders.Create)
	mux.HandleFunc("GET /api/orders/{id}", h.Orders.GetByID)
	mux.HandleFunc("PATCH /api/orders/{id}/status", h.Orders.UpdateStatus)
	mux.HandleFunc("PATCH /api/orders/{id}/payment", h.Orders.UpdatePayment)
	mux.HandleFunc("PUT /api/orders/{id}/tracking", h.Orders.SetTracking)

	mux.HandleFunc("POST /api/quotes", h.Quotes.Submit)
	mux.HandleFunc("GET /api/quotes", h.Quotes.List)
	mux.HandleFunc("GET /api/quotes/{id}", h.Quotes.GetByID)
	mux.HandleFunc("PUT /api/quotes/{id}", h.Quotes.Update)
	mux.HandleFunc("POST /api/quotes/{id}/approve", h.Quotes.Approve)
	mux.HandleFunc("POST /api/quotes/{id}/reject", h.Quotes.Reject)
	mux.HandleFunc("POST /api/quotes/{id}/convert", h.Quotes.Convert)

	mux.HandleFunc("GET /api/drafts/{owner}/{kind}", h.Drafts.Load)
	mux.HandleFunc("PUT /api/drafts/{owner}/{kind}", h.Drafts.Save)

	// Apply middleware in order: RequestID -> Recovery -> Logging -> CORS -> APIKeyAuth
	var handler http.Handler = mux
	handler = middleware.APIKeyAuth(apiKey, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}
