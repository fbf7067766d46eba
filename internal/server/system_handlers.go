package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/fintrack/internal/database"
	"github.com/aristath/fintrack/internal/scheduler"
	"github.com/aristath/fintrack/internal/server/respond"
)

// SystemHandlers serves host and process status.
type SystemHandlers struct {
	db        *database.DB
	providers []string
	jobs      JobLister
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(db *database.DB, providers []string, jobs JobLister, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		db:        db,
		providers: providers,
		jobs:      jobs,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// SystemStatusResponse is the body of GET /api/system/status.
type SystemStatusResponse struct {
	Status        string   `json:"status"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	CPUPercent    float64  `json:"cpu_percent"`
	MemoryPercent float64  `json:"memory_percent"`
	Goroutines    int      `json:"goroutines"`
	Database      string   `json:"database"`
	Providers     []string `json:"providers"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	resp := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		Database:      "ok",
		Providers:     h.providers,
	}
	if resp.Providers == nil {
		resp.Providers = []string{}
	}

	if h.db == nil {
		resp.Database = "unavailable"
		resp.Status = "degraded"
	} else if err := h.db.QuickCheck(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Database ping failed")
		resp.Database = "unreachable"
		resp.Status = "degraded"
	}

	respond.JSON(w, h.log, http.StatusOK, resp)
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respond.JSON(w, h.log, http.StatusServiceUnavailable, map[string]string{"error": "database unavailable"})
		return
	}
	stats, err := h.db.GetStats(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, stats)
}

// HandleJobs handles GET /api/system/jobs
func (h *SystemHandlers) HandleJobs(w http.ResponseWriter, r *http.Request) {
	jobs := []scheduler.JobInfo{}
	if h.jobs != nil {
		jobs = h.jobs.Jobs()
	}
	respond.JSON(w, h.log, http.StatusOK, jobs)
}

// getSystemStats samples CPU over 100ms so the endpoint stays responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}
