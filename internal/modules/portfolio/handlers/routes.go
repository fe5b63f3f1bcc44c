package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/positions", h.HandleListPositions)                  // Raw positions, optionally by symbol
		r.Get("/symbols", h.HandleGetSymbolTotals)                  // Per-symbol totals across accounts
		r.Get("/watchlists/{id}/allocation", h.HandleGetAllocation) // Equal-weight allocation
		r.Get("/attention", h.HandleGetAttention)                   // Dropped links and off-target items
	})
}
