package di

import (
	"github.com/aristath/fintrack/internal/clients/amfi"
	"github.com/aristath/fintrack/internal/clients/twelvedata"
	"github.com/aristath/fintrack/internal/clients/yahoo"
	"github.com/aristath/fintrack/internal/clock"
	"github.com/aristath/fintrack/internal/database"
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
	"github.com/aristath/fintrack/internal/scheduler"
)

// Container holds all application dependencies
// This is the single source of truth for all services, repositories, and databases
type Container struct {
	Clock clock.Clock
	DB    *database.DB

	// Repositories
	InvestmentRepo *investments.Repository
	LoanRepo       *loans.Repository
	PlanRepo       *plans.Repository
	ExpenseRepo    *expenses.Repository
	HistoryRepo    *history.Repository

	// Clients
	YahooClient      *yahoo.Client
	TwelveDataClient *twelvedata.Client
	AMFIClient       *amfi.Client

	// Pricing and NAV
	YahooThrottle      *pricing.Throttle
	TwelveDataThrottle *pricing.Throttle
	PriceResolver      *pricing.Resolver
	NAVCache           *nav.Cache

	// Services
	InvestmentService *investments.Service
	LoanService       *loans.Service
	PlanService       *plans.Service
	ExpenseService    *expenses.Service

	// Orchestration
	Metrics     *metrics.Registry
	Coordinator *refresh.Coordinator
	Scheduler   *scheduler.Scheduler

	// Reliability (Backup is nil when no bucket is configured)
	Backup      *reliability.BackupService
	Maintenance *reliability.MaintenanceJob
}

// Close releases the database. Call after the scheduler has stopped.
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
