package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the loan routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/loans", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/summary", h.HandleSummary)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}
