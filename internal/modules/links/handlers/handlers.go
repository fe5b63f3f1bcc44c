// Package handlers provides HTTP handlers for position/watchlist links.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/modules/links"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles link HTTP requests
type Handler struct {
	manager *links.Manager
	log     zerolog.Logger
}

// NewHandler creates a new link handler
func NewHandler(manager *links.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		manager: manager,
		log:     log.With().Str("handler", "links").Logger(),
	}
}

// CreateLinkRequest is the body of POST /api/links
type CreateLinkRequest struct {
	PositionID  int64 `json:"position_id"`
	WatchlistID int64 `json:"watchlist_id"`
}

// HandleCreateLink links a position to a watchlist, reactivating an existing link
// POST /api/links
func (h *Handler) HandleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PositionID <= 0 || req.WatchlistID <= 0 {
		h.writeError(w, http.StatusBadRequest, "position_id and watchlist_id are required")
		return
	}

	link, err := h.manager.CreateLink(req.PositionID, req.WatchlistID)
	if err != nil {
		// Unknown position or watchlist fails the foreign key
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, link)
}

// HandleGetLink returns one link
// GET /api/links/{positionID}/{watchlistID}
func (h *Handler) HandleGetLink(w http.ResponseWriter, r *http.Request) {
	positionID, watchlistID, ok := h.linkKey(w, r)
	if !ok {
		return
	}
	link, err := h.manager.Get(positionID, watchlistID)
	h.respondLink(w, link, err, "link not found")
}

// HandleDropLink marks an active link as dropped
// POST /api/links/{positionID}/{watchlistID}/drop
func (h *Handler) HandleDropLink(w http.ResponseWriter, r *http.Request) {
	positionID, watchlistID, ok := h.linkKey(w, r)
	if !ok {
		return
	}
	link, err := h.manager.MarkDropped(positionID, watchlistID)
	h.respondLink(w, link, err, "no active link")
}

// HandleReactivateLink moves a dropped link back to active
// POST /api/links/{positionID}/{watchlistID}/reactivate
func (h *Handler) HandleReactivateLink(w http.ResponseWriter, r *http.Request) {
	positionID, watchlistID, ok := h.linkKey(w, r)
	if !ok {
		return
	}
	link, err := h.manager.Reactivate(positionID, watchlistID)
	h.respondLink(w, link, err, "no dropped link")
}

// HandleDeleteLink removes a link
// DELETE /api/links/{positionID}/{watchlistID}
func (h *Handler) HandleDeleteLink(w http.ResponseWriter, r *http.Request) {
	positionID, watchlistID, ok := h.linkKey(w, r)
	if !ok {
		return
	}
	found, err := h.manager.DeleteLink(positionID, watchlistID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "link not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListDropped returns dropped links on positions that still hold shares
// GET /api/links/dropped
func (h *Handler) HandleListDropped(w http.ResponseWriter, r *http.Request) {
	details, err := h.manager.GetDroppedLinksWithDetails()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if details == nil {
		details = []domain.LinkDetail{}
	}
	h.writeJSON(w, http.StatusOK, details)
}

// HandleListByPosition returns every link of a position
// GET /api/links/position/{positionID}
func (h *Handler) HandleListByPosition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "positionID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid position id")
		return
	}
	list, err := h.manager.GetByPosition(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []domain.Link{}
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) respondLink(w http.ResponseWriter, link *domain.Link, err error, notFound string) {
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if link == nil {
		h.writeError(w, http.StatusNotFound, notFound)
		return
	}
	h.writeJSON(w, http.StatusOK, link)
}

func (h *Handler) linkKey(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	positionID, err := strconv.ParseInt(chi.URLParam(r, "positionID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid position id")
		return 0, 0, false
	}
	watchlistID, err := strconv.ParseInt(chi.URLParam(r, "watchlistID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid watchlist id")
		return 0, 0, false
	}
	return positionID, watchlistID, true
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
