package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/config"
	"github.com/aristath/fintrack/internal/refresh"
	"github.com/aristath/fintrack/internal/scheduler"
)

// Run history older than this is pruned by the maintenance job.
const historyRetention = 180 * 24 * time.Hour

// maintenanceSchedule runs daily at 02:00, before the backup window.
const maintenanceSchedule = "0 0 2 * * *"

// RegisterJobs adds one cron job per refresh kind plus maintenance and,
// when configured, backup.
func RegisterJobs(c *Container, cfg *config.Config, log zerolog.Logger) error {
	c.Scheduler = scheduler.New(log)

	schedules := map[refresh.Kind]string{
		refresh.KindPrices:        cfg.Schedules.Prices,
		refresh.KindNAVs:          cfg.Schedules.NAVs,
		refresh.KindContributions: cfg.Schedules.Contributions,
		refresh.KindAmortization:  cfg.Schedules.Amortization,
	}
	for _, kind := range refresh.AllKinds {
		job := scheduler.NewRefreshJob(c.Coordinator, kind, log)
		if err := c.Scheduler.AddJob(schedules[kind], job); err != nil {
			return fmt.Errorf("failed to register %s job: %w", kind, err)
		}
	}

	if err := c.Scheduler.AddJob(maintenanceSchedule, c.Maintenance); err != nil {
		return fmt.Errorf("failed to register maintenance job: %w", err)
	}

	if c.Backup != nil {
		job := scheduler.NewFuncJob("backup", c.Backup.Job(cfg.Backup.RetentionDays))
		if err := c.Scheduler.AddJob(cfg.Schedules.Backup, job); err != nil {
			return fmt.Errorf("failed to register backup job: %w", err)
		}
	} else {
		log.Info().Msg("BACKUP_BUCKET not set - backups disabled")
	}

	return nil
}
