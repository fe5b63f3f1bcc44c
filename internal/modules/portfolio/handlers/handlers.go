// Package handlers provides HTTP handlers for positions and the reconciliation views.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/modules/portfolio"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	positionRepo *portfolio.PositionRepository
	service      *portfolio.SummaryService
	log          zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(positionRepo *portfolio.PositionRepository, service *portfolio.SummaryService, log zerolog.Logger) *Handler {
	return &Handler{
		positionRepo: positionRepo,
		service:      service,
		log:          log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleListPositions returns every position, or those of one symbol with ?symbol=
// GET /api/portfolio/positions
func (h *Handler) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	var (
		positions []domain.Position
		err       error
	)
	if symbol := r.URL.Query().Get("symbol"); symbol != "" {
		positions, err = h.positionRepo.ListBySymbol(symbol)
	} else {
		positions, err = h.positionRepo.List()
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if positions == nil {
		positions = []domain.Position{}
	}
	h.writeJSON(w, http.StatusOK, positions)
}

// HandleGetSymbolTotals returns holdings aggregated per canonical symbol
// GET /api/portfolio/symbols
func (h *Handler) HandleGetSymbolTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.SymbolTotals(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if totals == nil {
		totals = []portfolio.SymbolTotal{}
	}
	h.writeJSON(w, http.StatusOK, totals)
}

// HandleGetAllocation returns the equal-weight allocation view of one watchlist
// GET /api/portfolio/watchlists/{id}/allocation
func (h *Handler) HandleGetAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid watchlist id")
		return
	}

	allocation, err := h.service.WatchlistAllocation(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if allocation == nil {
		h.writeError(w, http.StatusNotFound, "watchlist not found")
		return
	}
	h.writeJSON(w, http.StatusOK, allocation)
}

// HandleGetAttention returns dropped links and off-target holdings
// GET /api/portfolio/attention
func (h *Handler) HandleGetAttention(w http.ResponseWriter, r *http.Request) {
	attention, err := h.service.NeedsAttention(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, attention)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
