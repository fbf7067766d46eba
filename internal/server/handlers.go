package server

import (
	"net/http"

	"github.com/aristath/fintrack/internal/server/respond"
)

// Version is reported by /health. It is set at build time with -ldflags.
var Version = "dev"

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, s.log, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"service": "fintrack",
	})
}
