package plans

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/clock"
	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/refresh"
)

// NAVSource looks up scheme reference prices.
type NAVSource interface {
	// Lookup returns the scheme's NAV, refreshing stale data first.
	Lookup(ctx context.Context, scheme string) (decimal.Decimal, bool)
	// Fresh guarantees current data or returns why it could not.
	Fresh(ctx context.Context) error
}

// Service owns the plan lifecycle, the NAV refresh and contribution processing.
type Service struct {
	store Store
	navs  NAVSource
	clock clock.Clock
	log   zerolog.Logger
}

// NewService creates a plan service.
func NewService(store Store, navs NAVSource, clk clock.Clock, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		navs:  navs,
		clock: clk,
		log:   log.With().Str("service", "plans").Logger(),
	}
}

// Today is the service's current calendar date.
func (s *Service) Today() domain.Date {
	return domain.DateOf(s.clock.Now())
}

// List returns every plan.
func (s *Service) List(ctx context.Context) ([]Plan, error) {
	return s.store.LoadAll(ctx)
}

// Get returns one plan or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*Plan, error) {
	p, err := s.store.LoadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("plan %d: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// Create validates and stores a new plan.
func (s *Service) Create(ctx context.Context, p *Plan) error {
	p.ID = 0
	if err := p.Validate(); err != nil {
		return err
	}
	if p.LastUpdated.IsZero() {
		p.LastUpdated = s.Today()
	}
	return s.store.Save(ctx, p)
}

// Update replaces a plan's fields.
func (s *Service) Update(ctx context.Context, id int64, p *Plan) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	p.ID = id
	if p.LastUpdated.IsZero() {
		p.LastUpdated = existing.LastUpdated
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.store.Save(ctx, p)
}

// Delete removes a plan or returns domain.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// RefreshNAVs copies today's NAV onto every plan. The run aborts without
// touching any plan when the NAV table cannot be obtained. Only the NAV
// columns are written, so a contribution recorded while this run is in
// progress is kept.
func (s *Service) RefreshNAVs(ctx context.Context) (refresh.Tally, error) {
	var tally refresh.Tally

	if err := s.navs.Fresh(ctx); err != nil {
		return tally, fmt.Errorf("failed to obtain NAV table: %w", err)
	}

	plans, err := s.store.LoadAll(ctx)
	if err != nil {
		return tally, fmt.Errorf("failed to load plans: %w", err)
	}

	today := s.Today()
	for _, p := range plans {
		if err := ctx.Err(); err != nil {
			return tally, err
		}

		nav, ok := s.navs.Lookup(ctx, p.SchemeCode)
		if !ok || !nav.IsPositive() {
			s.log.Warn().Str("scheme", p.SchemeCode).Int64("plan_id", p.ID).Msg("No NAV found for scheme")
			tally.Failed++
			continue
		}

		if err := s.store.SaveNAV(ctx, p.ID, nav, today); err != nil {
			s.log.Error().Err(err).Int64("plan_id", p.ID).Msg("Failed to save plan NAV")
			tally.Failed++
			continue
		}

		s.log.Debug().Str("scheme", p.SchemeCode).Str("nav", nav.String()).Msg("Plan NAV updated")
		tally.Updated++
	}

	return tally, nil
}

// ProcessContributions records this month's contribution for every due plan.
// A due plan without a usable NAV is counted as failed and left untouched.
func (s *Service) ProcessContributions(ctx context.Context) (refresh.Tally, error) {
	var tally refresh.Tally

	plans, err := s.store.LoadAll(ctx)
	if err != nil {
		return tally, fmt.Errorf("failed to load plans: %w", err)
	}

	today := s.Today()
	for _, p := range plans {
		if err := ctx.Err(); err != nil {
			return tally, err
		}

		if !ShouldContribute(&p, today) {
			s.log.Debug().Int64("plan_id", p.ID).Msg("Plan not due for contribution")
			tally.Skipped++
			continue
		}

		nav, ok := s.navs.Lookup(ctx, p.SchemeCode)
		if !ok || !nav.IsPositive() {
			s.log.Warn().Str("scheme", p.SchemeCode).Int64("plan_id", p.ID).Msg("Invalid NAV, contribution not recorded")
			tally.Failed++
			continue
		}

		units := UnitsFor(p.MonthlyAmount, nav)
		p.TotalUnits = p.TotalUnits.Add(units)
		p.CurrentNAV = nav
		p.LastInvestmentDate = today
		p.LastUpdated = today

		if err := s.store.Save(ctx, &p); err != nil {
			s.log.Error().Err(err).Int64("plan_id", p.ID).Msg("Failed to save contribution")
			tally.Failed++
			continue
		}

		s.log.Info().
			Int64("plan_id", p.ID).
			Str("amount", p.MonthlyAmount.String()).
			Str("units", units.String()).
			Str("nav", nav.String()).
			Msg("Contribution recorded")
		tally.Updated++
	}

	return tally, nil
}

// Summary totals investment, value and profit across all plans.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	plans, err := s.store.LoadAll(ctx)
	if err != nil {
		return Summary{}, err
	}

	today := s.Today()
	sum := Summary{TotalInvestment: decimal.Zero, TotalCurrentValue: decimal.Zero, TotalProfitLoss: decimal.Zero}
	for _, p := range plans {
		sum.TotalInvestment = sum.TotalInvestment.Add(p.TotalInvested(today))
		sum.TotalCurrentValue = sum.TotalCurrentValue.Add(p.CurrentValue())
	}
	sum.TotalProfitLoss = sum.TotalCurrentValue.Sub(sum.TotalInvestment)
	return sum, nil
}
