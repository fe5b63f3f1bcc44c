package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all watchlist routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/watchlists", func(r chi.Router) {
		r.Get("/", h.HandleListWatchlists)
		r.Post("/", h.HandleCreateWatchlist)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/members", h.HandleGetMembers)
			r.Put("/allocation", h.HandleSetAllocation)
		})
	})
}
