package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/refresh"
	"github.com/aristath/fintrack/internal/server/respond"
)

// RefreshHandlers trigger refresh runs and list their history.
type RefreshHandlers struct {
	base    context.Context
	runner  RefreshRunner
	history RunHistory
	log     zerolog.Logger
}

// NewRefreshHandlers creates refresh handlers. Async runs inherit base, so
// cancelling it stops them.
func NewRefreshHandlers(base context.Context, runner RefreshRunner, history RunHistory, log zerolog.Logger) *RefreshHandlers {
	return &RefreshHandlers{
		base:    base,
		runner:  runner,
		history: history,
		log:     log.With().Str("handler", "refresh").Logger(),
	}
}

// RegisterRoutes registers the refresh routes
func (h *RefreshHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/refresh", func(r chi.Router) {
		r.Get("/", h.HandleKinds)
		r.Get("/runs", h.HandleRuns)
		r.Post("/{kind}", h.HandleTrigger)
	})
}

// HandleKinds handles GET /api/refresh
func (h *RefreshHandlers) HandleKinds(w http.ResponseWriter, r *http.Request) {
	kinds := []refresh.Kind{}
	if h.runner != nil {
		kinds = append(kinds, h.runner.Kinds()...)
	}
	respond.JSON(w, h.log, http.StatusOK, kinds)
}

// HandleTrigger handles POST /api/refresh/{kind}. The run starts in the
// background and 202 is returned, unless ?wait=true asks for the report.
func (h *RefreshHandlers) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	kind, err := refresh.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respond.Error(w, h.log, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	if h.runner == nil {
		respond.JSON(w, h.log, http.StatusServiceUnavailable, map[string]string{"error": "refresh not available"})
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		h.runAndWait(w, r, kind)
		return
	}

	go func() {
		report, err := h.runner.Run(h.base, kind)
		if err != nil {
			h.log.Error().Err(err).Str("kind", string(kind)).Msg("Manual refresh failed to start")
			return
		}
		h.log.Info().
			Str("kind", string(kind)).
			Str("run_id", report.ID).
			Bool("aborted", report.Failed()).
			Msg("Manual refresh finished")
	}()

	respond.JSON(w, h.log, http.StatusAccepted, map[string]string{
		"kind":   string(kind),
		"status": "accepted",
	})
}

type runOutcome struct {
	report refresh.RunReport
	err    error
}

// runAndWait runs kind under the server's base context, so a client that
// disconnects stops waiting without cancelling a run others may have joined.
func (h *RefreshHandlers) runAndWait(w http.ResponseWriter, r *http.Request, kind refresh.Kind) {
	done := make(chan runOutcome, 1)
	go func() {
		report, err := h.runner.Run(h.base, kind)
		done <- runOutcome{report: report, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			respond.Error(w, h.log, fmt.Errorf("%w: %v", domain.ErrNotFound, out.err))
			return
		}
		respond.JSON(w, h.log, http.StatusOK, out.report)
	case <-r.Context().Done():
		h.log.Info().Str("kind", string(kind)).Msg("Client stopped waiting, refresh continues")
	}
}

// HandleRuns handles GET /api/refresh/runs?kind=&limit=
func (h *RefreshHandlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respond.JSON(w, h.log, http.StatusOK, []refresh.RunReport{})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.Error(w, h.log, fmt.Errorf("%w: invalid limit %q", domain.ErrInvalidInput, raw))
			return
		}
		limit = n
	}

	var (
		runs []refresh.RunReport
		err  error
	)
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, perr := refresh.ParseKind(raw)
		if perr != nil {
			respond.Error(w, h.log, fmt.Errorf("%w: %v", domain.ErrInvalidInput, perr))
			return
		}
		runs, err = h.history.RecentByKind(r.Context(), kind, limit)
	} else {
		runs, err = h.history.Recent(r.Context(), limit)
	}
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, runs)
}
