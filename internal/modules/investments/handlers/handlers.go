// Package handlers provides HTTP handlers for investment positions.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/modules/investments"
	"github.com/aristath/fintrack/internal/server/respond"
)

// Handler serves the investment endpoints.
type Handler struct {
	service *investments.Service
	log     zerolog.Logger
}

// NewHandler creates a new investments handler
func NewHandler(service *investments.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "investments").Logger(),
	}
}

// HandleList handles GET /api/investments
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	views := make([]investments.View, 0, len(all))
	for _, i := range all {
		views = append(views, investments.NewView(i))
	}
	respond.JSON(w, h.log, http.StatusOK, views)
}

// HandleGet handles GET /api/investments/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	i, err := h.service.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, investments.NewView(*i))
}

// HandleCreate handles POST /api/investments
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var i investments.Instrument
	if err := respond.Decode(r, &i); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	if err := h.service.Create(r.Context(), &i); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusCreated, investments.NewView(i))
}

// HandleUpdate handles PUT /api/investments/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	var i investments.Instrument
	if err := respond.Decode(r, &i); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	if err := h.service.Update(r.Context(), id, &i); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, investments.NewView(i))
}

// HandleDelete handles DELETE /api/investments/{id}
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

// HandleSummary handles GET /api/investments/summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, sum)
}
