package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all link routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/links", func(r chi.Router) {
		r.Post("/", h.HandleCreateLink)
		r.Get("/dropped", h.HandleListDropped)
		r.Get("/position/{positionID}", h.HandleListByPosition)

		r.Route("/{positionID}/{watchlistID}", func(r chi.Router) {
			r.Get("/", h.HandleGetLink)
			r.Delete("/", h.HandleDeleteLink)
			r.Post("/drop", h.HandleDropLink)
			r.Post("/reactivate", h.HandleReactivateLink)
		})
	})
}
