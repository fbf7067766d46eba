// Package di provides dependency injection wiring and initialization.
package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/clock"
	"github.com/aristath/fintrack/internal/config"
)

// Wire initializes all dependencies and returns a fully configured container
// Order of operations:
// 1. Open and migrate the database
// 2. Initialize repositories
// 3. Initialize clients, services and the refresh coordinator
// 4. Register scheduled jobs (not started)
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	return WireWithClock(ctx, cfg, clock.Real{}, log)
}

// WireWithClock is Wire with an injected clock.
func WireWithClock(ctx context.Context, cfg *config.Config, clk clock.Clock, log zerolog.Logger) (*Container, error) {
	db, err := InitializeDatabase(cfg, log)
	if err != nil {
		return nil, err
	}
	c := &Container{Clock: clk, DB: db}

	InitializeRepositories(c, log)

	if err := InitializeServices(ctx, c, cfg, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := RegisterJobs(c, cfg, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")
	return c, nil
}
