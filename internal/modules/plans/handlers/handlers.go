// Package handlers provides HTTP handlers for plans.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/modules/plans"
	"github.com/aristath/fintrack/internal/server/respond"
)

// Handler serves the plan endpoints.
type Handler struct {
	service *plans.Service
	log     zerolog.Logger
}

// NewHandler creates a new plans handler
func NewHandler(service *plans.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "plans").Logger(),
	}
}

// HandleList handles GET /api/plans
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	today := h.service.Today()
	views := make([]plans.View, 0, len(all))
	for _, p := range all {
		views = append(views, plans.NewView(p, today))
	}
	respond.JSON(w, h.log, http.StatusOK, views)
}

// HandleGet handles GET /api/plans/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, plans.NewView(*p, h.service.Today()))
}

// HandleCreate handles POST /api/plans
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var p plans.Plan
	if err := respond.Decode(r, &p); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	if err := h.service.Create(r.Context(), &p); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusCreated, plans.NewView(p, h.service.Today()))
}

// HandleUpdate handles PUT /api/plans/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	var p plans.Plan
	if err := respond.Decode(r, &p); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	if err := h.service.Update(r.Context(), id, &p); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, plans.NewView(p, h.service.Today()))
}

// HandleDelete handles DELETE /api/plans/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSummary handles GET /api/plans/summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, sum)
}
