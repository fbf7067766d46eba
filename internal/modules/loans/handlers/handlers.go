// Package handlers provides HTTP handlers for loans.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/modules/loans"
	"github.com/aristath/fintrack/internal/server/respond"
)

// Handler serves the loan endpoints.
type Handler struct {
	service *loans.Service
	log     zerolog.Logger
}

// NewHandler creates a new loans handler
func NewHandler(service *loans.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "loans").Logger(),
	}
}

// HandleList handles GET /api/loans
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	today := h.service.Today()
	views := make([]loans.View, 0, len(all))
	for _, l := range all {
		views = append(views, loans.NewView(l, today))
	}
	respond.JSON(w, h.log, http.StatusOK, views)
}

// HandleGet handles GET /api/loans/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	l, err := h.service.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, loans.NewView(*l, h.service.Today()))
}

// HandleCreate handles POST /api/loans
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var l loans.Loan
	if err := respond.Decode(r, &l); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	if err := h.service.Create(r.Context(), &l); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusCreated, loans.NewView(l, h.service.Today()))
}

// HandleUpdate handles PUT /api/loans/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	var edit loans.Edit
	if err := respond.Decode(r, &edit); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	l, err := h.service.Update(r.Context(), id, edit)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, loans.NewView(*l, h.service.Today()))
}

// HandleDelete handles DELETE /api/loans/{id}
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

// HandleSummary handles GET /api/loans/summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, sum)
}
