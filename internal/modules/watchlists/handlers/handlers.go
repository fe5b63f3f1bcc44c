// Package handlers provides HTTP handlers for watchlists and their members.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/modules/watchlists"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handler handles watchlist HTTP requests
type Handler struct {
	watchlistRepo *watchlists.Repository
	memberRepo    *watchlists.MemberRepository
	log           zerolog.Logger
}

// NewHandler creates a new watchlist handler
func NewHandler(watchlistRepo *watchlists.Repository, memberRepo *watchlists.MemberRepository, log zerolog.Logger) *Handler {
	return &Handler{
		watchlistRepo: watchlistRepo,
		memberRepo:    memberRepo,
		log:           log.With().Str("handler", "watchlists").Logger(),
	}
}

// CreateWatchlistRequest is the body of POST /api/watchlists
type CreateWatchlistRequest struct {
	Name       string                 `json:"name"`
	Source     domain.WatchlistSource `json:"source"`
	Allocation *decimal.Decimal       `json:"allocation"`
}

// SetAllocationRequest is the body of PUT /api/watchlists/{id}/allocation.
// A null allocation clears it.
type SetAllocationRequest struct {
	Allocation *decimal.Decimal `json:"allocation"`
}

// WatchlistResponse is a watchlist with its active member count
type WatchlistResponse struct {
	domain.Watchlist
	ActiveMembers int `json:"active_members"`
}

// HandleListWatchlists returns every watchlist
// GET /api/watchlists
func (h *Handler) HandleListWatchlists(w http.ResponseWriter, r *http.Request) {
	list, err := h.watchlistRepo.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := make([]WatchlistResponse, 0, len(list))
	for _, wl := range list {
		count, err := h.memberRepo.CountActive(wl.ID)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		response = append(response, WatchlistResponse{Watchlist: wl, ActiveMembers: count})
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleCreateWatchlist creates a watchlist
// POST /api/watchlists
func (h *Handler) HandleCreateWatchlist(w http.ResponseWriter, r *http.Request) {
	var req CreateWatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := h.watchlistRepo.GetByName(req.Name)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		h.writeError(w, http.StatusConflict, "watchlist "+existing.Name+" already exists")
		return
	}

	created, err := h.watchlistRepo.Create(req.Name, req.Source, req.Allocation)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidWatchlist) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, WatchlistResponse{Watchlist: *created})
}

// HandleGetMembers returns the active members of a watchlist, or the full
// membership history of one symbol when ?symbol= is given
// GET /api/watchlists/{id}/members
func (h *Handler) HandleGetMembers(w http.ResponseWriter, r *http.Request) {
	wl, ok := h.loadWatchlist(w, r)
	if !ok {
		return
	}

	var (
		members []domain.WatchlistMember
		err     error
	)
	if symbol := r.URL.Query().Get("symbol"); symbol != "" {
		members, err = h.memberRepo.History(wl.ID, symbol)
	} else {
		members, err = h.memberRepo.ActiveMembers(wl.ID)
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if members == nil {
		members = []domain.WatchlistMember{}
	}
	h.writeJSON(w, http.StatusOK, members)
}

// HandleSetAllocation sets or clears the dollar allocation of a watchlist
// PUT /api/watchlists/{id}/allocation
func (h *Handler) HandleSetAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid watchlist id")
		return
	}

	var req SetAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	found, err := h.watchlistRepo.SetAllocation(id, req.Allocation)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidWatchlist) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "watchlist not found")
		return
	}

	updated, err := h.watchlistRepo.GetByID(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) loadWatchlist(w http.ResponseWriter, r *http.Request) (*domain.Watchlist, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid watchlist id")
		return nil, false
	}
	wl, err := h.watchlistRepo.GetByID(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if wl == nil {
		h.writeError(w, http.StatusNotFound, "watchlist not found")
		return nil, false
	}
	return wl, true
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
