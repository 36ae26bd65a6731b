package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// DraftHandler saves and restores customer carts and quote requests.
type DraftHandler struct {
	service service.DraftService
	logger  zerolog.Logger
}

// NewDraftHandler creates a new draft handler.
func NewDraftHandler(service service.DraftService, logger zerolog.Logger) *DraftHandler {
	return &DraftHandler{
		service: service,
		logger:  logger.With().Str("handler", "draft").Logger(),
	}
}

// Load handles GET /api/drafts/{owner}/{kind}.
func (h *DraftHandler) Load(w http.ResponseWriter, r *http.Request) {
	draft, err := h.service.Load(r.Context(), r.PathValue("owner"), model.DraftKind(r.PathValue("kind")))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

// Save handles PUT /api/drafts/{owner}/{kind}.
func (h *DraftHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req model.DraftRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	draft, err := h.service.Save(r.Context(), r.PathValue("owner"), model.DraftKind(r.PathValue("kind")), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}
