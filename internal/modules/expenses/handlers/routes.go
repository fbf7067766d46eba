package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the expense routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/summary", h.HandleSummary)
		r.Get("/by-date-range", h.HandleByDateRange)
		r.Get("/by-category", h.HandleByCategory)
		r.Get("/average-monthly", h.HandleAverageMonthly)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}
