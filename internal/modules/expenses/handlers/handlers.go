// Package handlers provides HTTP handlers for expenses.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/expenses"
	"github.com/aristath/fintrack/internal/server/respond"
)

// Handler serves the expense endpoints.
type Handler struct {
	service *expenses.Service
	log     zerolog.Logger
}

// NewHandler creates a new expenses handler
func NewHandler(service *expenses.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "expenses").Logger(),
	}
}

// HandleList handles GET /api/expenses
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, nonNil(list))
}

// HandleGet handles GET /api/expenses/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, e)
}

// HandleCreate handles POST /api/expenses
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var e expenses.Expense
	if err := respond.Decode(r, &e); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	if err := h.service.Create(r.Context(), &e); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusCreated, e)
}

// HandleUpdate handles PUT /api/expenses/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	var e expenses.Expense
	if err := respond.Decode(r, &e); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	if err := h.service.Update(r.Context(), id, &e); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, e)
}

// HandleDelete handles DELETE /api/expenses/{id}
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

// HandleByDateRange handles GET /api/expenses/by-date-range?startDate=&endDate=
func (h *Handler) HandleByDateRange(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "startDate")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	end, err := queryDate(r, "endDate")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	if start.IsZero() || end.IsZero() {
		respond.Error(w, h.log, fmt.Errorf("%w: startDate and endDate are required", domain.ErrInvalidInput))
		return
	}

	list, err := h.service.Between(r.Context(), start, end)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, nonNil(list))
}

// HandleByCategory handles GET /api/expenses/by-category?category=
func (h *Handler) HandleByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		respond.Error(w, h.log, fmt.Errorf("%w: category is required", domain.ErrInvalidInput))
		return
	}

	list, err := h.service.InCategory(r.Context(), category)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, nonNil(list))
}

// HandleSummary handles GET /api/expenses/summary?startDate=&endDate=
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "startDate")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	end, err := queryDate(r, "endDate")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	sum, err := h.service.Summary(r.Context(), start, end)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, sum)
}

// HandleAverageMonthly handles GET /api/expenses/average-monthly?category=
func (h *Handler) HandleAverageMonthly(w http.ResponseWriter, r *http.Request) {
	avg, err := h.service.AverageMonthly(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, avg)
}

func queryDate(r *http.Request, key string) (domain.Date, error) {
	d, err := domain.ParseDate(r.URL.Query().Get(key))
	if err != nil {
		return domain.Date{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	return d, nil
}

func nonNil(list []expenses.Expense) []expenses.Expense {
	if list == nil {
		return []expenses.Expense{}
	}
	return list
}
