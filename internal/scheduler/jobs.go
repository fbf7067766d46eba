package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/refresh"
)

// Runner runs one refresh kind.
type Runner interface {
	Run(ctx context.Context, kind refresh.Kind) (refresh.RunReport, error)
}

// RefreshJob triggers one refresh kind through the coordinator.
type RefreshJob struct {
	runner Runner
	kind   refresh.Kind
	log    zerolog.Logger
}

// NewRefreshJob creates a job for kind.
func NewRefreshJob(runner Runner, kind refresh.Kind, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		runner: runner,
		kind:   kind,
		log:    log.With().Str("job", "refresh_"+string(kind)).Logger(),
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "refresh_" + string(j.kind)
}

// Run executes the refresh. An aborted run is reported as an error.
func (j *RefreshJob) Run(ctx context.Context) error {
	report, err := j.runner.Run(ctx, j.kind)
	if err != nil {
		return err
	}
	if report.Failed() {
		return fmt.Errorf("%s run %s aborted: %w", j.kind, report.ID, errors.New(report.Error))
	}

	j.log.Info().
		Str("run_id", report.ID).
		Int("updated", report.Tally.Updated).
		Int("failed", report.Tally.Failed).
		Int("skipped", report.Tally.Skipped).
		Bool("shared", report.Shared).
		Msg("Scheduled refresh finished")
	return nil
}

// FuncJob adapts a plain function to Job.
type FuncJob struct {
	name string
	fn   func(ctx context.Context) error
}

// NewFuncJob wraps fn as a job called name.
func NewFuncJob(name string, fn func(ctx context.Context) error) *FuncJob {
	return &FuncJob{name: name, fn: fn}
}

// Name returns the job name
func (j *FuncJob) Name() string { return j.name }

// Run executes the wrapped function
func (j *FuncJob) Run(ctx context.Context) error { return j.fn(ctx) }
