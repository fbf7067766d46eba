package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/clients/amfi"
	"github.com/aristath/fintrack/internal/clients/twelvedata"
	"github.com/aristath/fintrack/internal/clients/yahoo"
	"github.com/aristath/fintrack/internal/config"
	"github.com/aristath/fintrack/internal/history"
	"github.com/aristath/fintrack/internal/metrics"
	"github.com/aristath/fintrack/internal/modules/expenses"
	"github.com/aristath/fintrack/internal/modules/investments"
	"github.com/aristath/fintrack/internal/modules/loans"
	"github.com/aristath/fintrack/internal/modules/plans"
	"github.com/aristath/fintrack/internal/nav"
	"github.com/aristath/fintrack/internal/pricing"
	"github.com/aristath/fintrack/internal/refresh"
	"github.com/aristath/fintrack/internal/reliability"
)

// InitializeRepositories creates the record-store repositories.
func InitializeRepositories(c *Container, log zerolog.Logger) {
	conn := c.DB.Conn()
	c.InvestmentRepo = investments.NewRepository(conn, log)
	c.LoanRepo = loans.NewRepository(conn, log)
	c.PlanRepo = plans.NewRepository(conn, log)
	c.ExpenseRepo = expenses.NewRepository(conn, log)
	c.HistoryRepo = history.NewRepository(conn, log)
}

// InitializeServices builds clients, the price chain, the NAV cache, the
// domain services and the refresh coordinator.
func InitializeServices(ctx context.Context, c *Container, cfg *config.Config, log zerolog.Logger) error {
	p := cfg.Providers

	c.YahooClient = yahoo.NewClient(log,
		yahoo.WithBaseURL(p.YahooBaseURL),
		yahoo.WithTimeout(p.YahooTimeout),
	)
	c.TwelveDataClient = twelvedata.NewClient(p.TwelveDataAPIKey, log,
		twelvedata.WithBaseURL(p.TwelveDataBaseURL),
		twelvedata.WithTimeout(p.TwelveDataTimeout),
	)
	c.AMFIClient = amfi.NewClient(log,
		amfi.WithURL(p.AMFINavURL),
		amfi.WithTimeout(p.AMFITimeout),
	)

	if !c.TwelveDataClient.Configured() {
		log.Warn().Msg("TWELVEDATA_API_KEY not set - secondary price provider disabled")
	}

	c.Metrics = metrics.New()

	c.YahooThrottle = pricing.NewThrottle("yahoo", p.YahooMinInterval, c.Clock)
	c.TwelveDataThrottle = pricing.NewThrottle("twelvedata", p.TwelveDataMinInterval, c.Clock)
	c.PriceResolver = pricing.NewResolver(c.Metrics, log).
		Add(pricing.NewRetryingSource("yahoo", c.YahooClient, pricing.RetryPolicy{
			MaxAttempts:    p.YahooMaxAttempts,
			InitialBackoff: p.YahooInitialBackoff,
		}, c.Clock, log), c.YahooThrottle).
		Add(pricing.NewSingleShotSource("twelvedata", c.TwelveDataClient), c.TwelveDataThrottle)

	c.NAVCache = nav.NewCache(c.AMFIClient, c.Clock, log)

	c.InvestmentService = investments.NewService(c.InvestmentRepo, c.PriceResolver, c.Clock, cfg.PriceRefreshWorkers, log)
	c.LoanService = loans.NewService(c.LoanRepo, c.Clock, log)
	c.PlanService = plans.NewService(c.PlanRepo, c.NAVCache, c.Clock, log)
	c.ExpenseService = expenses.NewService(c.ExpenseRepo, c.Clock, log)

	c.Coordinator = refresh.NewCoordinator(c.Clock, log)
	c.Coordinator.Register(refresh.KindPrices, c.InvestmentService.RefreshPrices)
	c.Coordinator.Register(refresh.KindNAVs, c.PlanService.RefreshNAVs)
	c.Coordinator.Register(refresh.KindContributions, c.PlanService.ProcessContributions)
	c.Coordinator.Register(refresh.KindAmortization, c.LoanService.RefreshBalances)
	c.Coordinator.SetRecorder(c.HistoryRepo)
	c.Coordinator.SetObserver(c.Metrics)

	c.Maintenance = reliability.NewMaintenanceJob(c.DB, c.HistoryRepo, c.Clock, historyRetention, cfg.DataDir, log)

	if cfg.Backup.Enabled() {
		store, err := reliability.NewS3Client(ctx, reliability.S3Config{
			Endpoint:        cfg.Backup.Endpoint,
			Region:          cfg.Backup.Region,
			Bucket:          cfg.Backup.Bucket,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create backup client: %w", err)
		}
		c.Backup = reliability.NewBackupService(c.DB, store, c.Clock, cfg.DataDir, log)
	}

	return nil
}

// ProviderNames lists the price chain in priority order, then the NAV source.
func (c *Container) ProviderNames() []string {
	var out []string
	for _, p := range c.PriceResolver.Providers() {
		name := p.Name
		if !p.Configured {
			name += " (unconfigured)"
		}
		out = append(out, name)
	}
	return append(out, "amfi")
}
