package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ProductHandler serves the catalogue, tier pricing and budget browsing.
type ProductHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.CatalogService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// GetAll handles GET /api/products.
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := page(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	products, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetByID handles GET /api/products/{id}.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// ResolvePrice handles GET /api/products/{id}/price?quantity=.
func (h *ProductHandler) ResolvePrice(w http.ResponseWriter, r *http.Request) {
	quantity, err := queryInt(r, "quantity", 1)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	price, err := h.service.ResolvePrice(r.Context(), r.PathValue("id"), quantity)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, price)
}

// ReplaceTiers handles PUT /api/products/{id}/tiers. An empty list removes
// tier pricing from the product.
func (h *ProductHandler) ReplaceTiers(w http.ResponseWriter, r *http.Request) {
	var req model.TiersRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	tiers := make([]model.PriceTier, len(req.Tiers))
	for i, t := range req.Tiers {
		price, err := decimal.NewFromString(t.UnitPrice)
		if err != nil {
			writeError(w, r, model.NewValidationError("tiers["+strconv.Itoa(i)+"].unitPrice", "must be a decimal amount"), h.logger)
			return
		}
		tiers[i] = model.PriceTier{QuantityMin: t.QuantityMin, QuantityMax: t.QuantityMax, UnitPrice: price}
	}

	product, err := h.service.ReplaceTiers(r.Context(), r.PathValue("id"), tiers)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Budgets handles GET /api/budgets.
func (h *ProductHandler) Budgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Budgets())
}

// BudgetProducts handles GET /api/budgets/{index}/products. A seed query
// parameter keeps the shuffled order stable across pages.
func (h *ProductHandler) BudgetProducts(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, r, model.NewValidationError("index", "must be an integer"), h.logger)
		return
	}

	limit, offset, err := page(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var seed *uint64
	if raw := r.URL.Query().Get("seed"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, r, model.NewValidationError("seed", "must be an unsigned integer"), h.logger)
			return
		}
		seed = &v
	}

	products, err := h.service.BucketProducts(r.Context(), index, limit, offset, seed)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}
