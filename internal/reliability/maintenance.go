package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/aristath/fintrack/internal/clock"
)

// Store is the database surface maintenance needs.
type Store interface {
	Name() string
	QuickCheck(ctx context.Context) error
	Checkpoint(ctx context.Context) error
}

// HistoryPruner drops old run reports.
type HistoryPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Free space thresholds for the data volume.
const (
	criticalFreeBytes = 500 << 20
	lowFreeBytes      = 5 << 30
)

// MaintenanceJob checkpoints the WAL, verifies the database answers, prunes
// old run history and checks free disk space.
type MaintenanceJob struct {
	db        Store
	history   HistoryPruner
	clock     clock.Clock
	retention time.Duration
	dataDir   string
	log       zerolog.Logger
}

// NewMaintenanceJob creates the daily maintenance job. A zero retention
// keeps run history forever.
func NewMaintenanceJob(db Store, history HistoryPruner, clk clock.Clock, retention time.Duration, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:        db,
		history:   history,
		clock:     clk,
		retention: retention,
		dataDir:   dataDir,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run executes the maintenance steps. Only an unreachable database or a
// critically full disk fail the job.
func (j *MaintenanceJob) Run(ctx context.Context) error {
	j.log.Info().Msg("Starting maintenance")
	startTime := j.clock.Now()

	if err := j.db.QuickCheck(ctx); err != nil {
		return fmt.Errorf("database %s unreachable: %w", j.db.Name(), err)
	}

	if err := j.db.Checkpoint(ctx); err != nil {
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	if j.history != nil && j.retention > 0 {
		n, err := j.history.Prune(ctx, j.clock.Now().Add(-j.retention))
		if err != nil {
			j.log.Warn().Err(err).Msg("Run history prune failed")
		} else if n > 0 {
			j.log.Info().Int64("deleted", n).Msg("Pruned run history")
		}
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().
		Dur("duration_ms", j.clock.Now().Sub(startTime)).
		Msg("Maintenance completed")
	return nil
}

func (j *MaintenanceJob) checkDiskSpace() error {
	if j.dataDir == "" {
		return nil
	}
	usage, err := disk.Usage(j.dataDir)
	if err != nil {
		j.log.Warn().Err(err).Msg("Disk usage unavailable")
		return nil
	}

	switch {
	case usage.Free < criticalFreeBytes:
		j.log.Error().Uint64("free_bytes", usage.Free).Msg("CRITICAL: insufficient disk space")
		return fmt.Errorf("only %d bytes free on %s", usage.Free, j.dataDir)
	case usage.Free < lowFreeBytes:
		j.log.Warn().Uint64("free_bytes", usage.Free).Msg("Disk space running low")
	}
	return nil
}
