package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all import routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/imports", func(r chi.Router) {
		r.Post("/schwab", h.HandleImportSchwab)
		r.Post("/seeking-alpha", h.HandleImportSeekingAlpha)
		r.Post("/motley-fool", h.HandleImportMotleyFool)
		r.Get("/runs", h.HandleListRuns)
	})
}
