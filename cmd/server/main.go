// Package main is the entry point for the fintrack server.
//
// The server keeps the record store (investments, loans, plans, expenses)
// current: instrument prices from Yahoo with a Twelve Data fallback, AMFI
// NAVs, monthly plan contributions and loan amortization all run on cron
// schedules and can be triggered over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/fintrack/internal/config"
	"github.com/aristath/fintrack/internal/di"
	expensehandlers "github.com/aristath/fintrack/internal/modules/expenses/handlers"
	investmenthandlers "github.com/aristath/fintrack/internal/modules/investments/handlers"
	loanhandlers "github.com/aristath/fintrack/internal/modules/loans/handlers"
	planhandlers "github.com/aristath/fintrack/internal/modules/plans/handlers"
	"github.com/aristath/fintrack/internal/server"
	"github.com/aristath/fintrack/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting fintrack")

	container, err := di.Wire(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		DB:        container.DB,
		Refresh:   container.Coordinator,
		History:   container.HistoryRepo,
		Jobs:      container.Scheduler,
		Metrics:   container.Metrics.Handler(),
		Providers: container.ProviderNames(),
		Modules: []server.RouteRegistrar{
			investmenthandlers.NewHandler(container.InvestmentService, log),
			loanhandlers.NewHandler(container.LoanService, log),
			planhandlers.NewHandler(container.PlanService, log),
			expensehandlers.NewHandler(container.ExpenseService, log),
		},
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	container.Scheduler.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Stop cron first so no new runs start, then drain HTTP.
	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
