package refresh

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/aristath/fintrack/internal/clock"
)

// RunFunc performs one bulk refresh. A non-nil error means the run aborted;
// per-record failures belong in the Tally.
type RunFunc func(ctx context.Context) (Tally, error)

// Recorder persists run reports.
type Recorder interface {
	Save(ctx context.Context, report RunReport) error
}

// Observer is notified of every completed run.
type Observer interface {
	ObserveRun(report RunReport)
}

// Coordinator runs refresh kinds with single-flight semantics. A call for a
// kind that is already running waits for that run and receives its report.
// Different kinds never block each other.
type Coordinator struct {
	group singleflight.Group
	clock clock.Clock
	log   zerolog.Logger

	mu       sync.RWMutex
	runners  map[Kind]RunFunc
	recorder Recorder
	observer Observer
}

// NewCoordinator creates a coordinator with no registered kinds.
func NewCoordinator(clk clock.Clock, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		clock:   clk,
		log:     log.With().Str("component", "refresh").Logger(),
		runners: make(map[Kind]RunFunc),
	}
}

// Register binds fn to kind, replacing any previous binding.
func (c *Coordinator) Register(kind Kind, fn RunFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runners[kind] = fn
}

// SetRecorder sets where run reports are stored.
func (c *Coordinator) SetRecorder(r Recorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorder = r
}

// SetObserver sets who is told about finished runs.
func (c *Coordinator) SetObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
}

// Registered reports whether kind has a runner.
func (c *Coordinator) Registered(kind Kind) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.runners[kind]
	return ok
}

// Kinds lists the registered kinds in scheduling order.
func (c *Coordinator) Kinds() []Kind {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Kind
	for _, k := range AllKinds {
		if _, ok := c.runners[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Run executes kind, or joins the run of kind already in progress.
// The returned error is non-nil only when kind has no runner; a run that
// aborted is described by the report's Error field.
func (c *Coordinator) Run(ctx context.Context, kind Kind) (RunReport, error) {
	c.mu.RLock()
	fn, ok := c.runners[kind]
	c.mu.RUnlock()
	if !ok {
		return RunReport{}, fmt.Errorf("no runner registered for refresh kind %q", kind)
	}

	leader := false
	v, _, shared := c.group.Do(string(kind), func() (interface{}, error) {
		leader = true
		return c.execute(ctx, kind, fn), nil
	})

	report := v.(RunReport)
	report.Shared = shared && !leader
	if report.Shared {
		c.log.Debug().Str("kind", string(kind)).Str("run_id", report.ID).Msg("Joined refresh already in progress")
	}
	return report, nil
}

func (c *Coordinator) execute(ctx context.Context, kind Kind, fn RunFunc) RunReport {
	report := RunReport{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartedAt: c.clock.Now(),
	}

	log := c.log.With().Str("kind", string(kind)).Str("run_id", report.ID).Logger()
	log.Info().Msg("Starting refresh")

	tally, err := c.safeRun(ctx, fn)
	report.Tally = tally
	report.FinishedAt = c.clock.Now()
	if err != nil {
		report.Error = err.Error()
		log.Error().Err(err).Msg("Refresh aborted")
	} else {
		log.Info().
			Int("updated", tally.Updated).
			Int("failed", tally.Failed).
			Int("skipped", tally.Skipped).
			Int("config_errors", tally.ConfigErrors).
			Dur("duration", report.Duration()).
			Msg("Refresh completed")
	}

	c.mu.RLock()
	recorder, observer := c.recorder, c.observer
	c.mu.RUnlock()

	if observer != nil {
		observer.ObserveRun(report)
	}
	if recorder != nil {
		// The run itself may have been cancelled; the report is still stored.
		if err := recorder.Save(context.WithoutCancel(ctx), report); err != nil {
			log.Warn().Err(err).Msg("Failed to record refresh run")
		}
	}

	return report
}

func (c *Coordinator) safeRun(ctx context.Context, fn RunFunc) (tally Tally, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in refresh: %v", p)
		}
	}()
	return fn(ctx)
}
