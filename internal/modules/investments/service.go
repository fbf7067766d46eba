package investments

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/fintrack/internal/clock"
	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/pricing"
	"github.com/aristath/fintrack/internal/refresh"
)

// PriceResolver resolves one symbol's current price.
type PriceResolver interface {
	Resolve(ctx context.Context, symbol string, kind domain.InstrumentKind) pricing.Result
}

// Service owns the position lifecycle and the price refresh.
type Service struct {
	store    Store
	resolver PriceResolver
	clock    clock.Clock
	workers  int
	log      zerolog.Logger
}

// NewService creates an investment service. workers bounds how many
// positions are resolved at once; provider throttles still apply.
func NewService(store Store, resolver PriceResolver, clk clock.Clock, workers int, log zerolog.Logger) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		store:    store,
		resolver: resolver,
		clock:    clk,
		workers:  workers,
		log:      log.With().Str("service", "investments").Logger(),
	}
}

// Today is the service's current calendar date.
func (s *Service) Today() domain.Date {
	return domain.DateOf(s.clock.Now())
}

// List returns every position.
func (s *Service) List(ctx context.Context) ([]Instrument, error) {
	return s.store.LoadAll(ctx)
}

// Get returns one position or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*Instrument, error) {
	i, err := s.store.LoadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, fmt.Errorf("investment %d: %w", id, domain.ErrNotFound)
	}
	return i, nil
}

// Create validates and stores a new position.
func (s *Service) Create(ctx context.Context, i *Instrument) error {
	i.ID = 0
	if err := i.Validate(); err != nil {
		return err
	}
	if i.LastUpdated.IsZero() {
		i.LastUpdated = s.Today()
	}
	return s.store.Save(ctx, i)
}

// Update replaces a position's fields.
func (s *Service) Update(ctx context.Context, id int64, i *Instrument) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	i.ID = id
	if i.LastUpdated.IsZero() {
		i.LastUpdated = existing.LastUpdated
	}
	if err := i.Validate(); err != nil {
		return err
	}
	return s.store.Save(ctx, i)
}

// Delete removes a position or returns domain.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// RefreshPrices resolves a current price for every position and saves the
// ones that got one. Positions that could not be priced are left unchanged.
func (s *Service) RefreshPrices(ctx context.Context) (refresh.Tally, error) {
	var (
		mu    sync.Mutex
		tally refresh.Tally
	)

	positions, err := s.store.LoadAll(ctx)
	if err != nil {
		return tally, fmt.Errorf("failed to load investments: %w", err)
	}

	today := s.Today()
	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for _, pos := range positions {
		if ctx.Err() != nil {
			break
		}
		pos := pos
		g.Go(func() error {
			outcome := s.refreshOne(ctx, pos, today)
			mu.Lock()
			tally.Add(outcome)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return tally, err
	}
	return tally, nil
}

func (s *Service) refreshOne(ctx context.Context, pos Instrument, today domain.Date) refresh.Tally {
	res := s.resolver.Resolve(ctx, pos.Symbol, pos.Kind)
	if !res.OK() {
		t := refresh.Tally{Failed: 1}
		if res.ConfigError() {
			t.ConfigErrors = 1
		}
		return t
	}

	pos.CurrentPrice = res.Price
	pos.LastUpdated = today
	if err := s.store.Save(ctx, &pos); err != nil {
		s.log.Error().Err(err).Int64("investment_id", pos.ID).Msg("Failed to save price")
		return refresh.Tally{Failed: 1}
	}

	s.log.Debug().
		Str("symbol", pos.Symbol).
		Str("price", res.Price.String()).
		Str("provider", res.Provider).
		Msg("Investment price updated")
	return refresh.Tally{Updated: 1}
}

// Summary totals value and profit across all positions.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	positions, err := s.store.LoadAll(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{TotalValue: decimal.Zero, TotalProfitLoss: decimal.Zero}
	for _, i := range positions {
		sum.TotalValue = sum.TotalValue.Add(i.CurrentValue())
		sum.TotalProfitLoss = sum.TotalProfitLoss.Add(i.ProfitLoss())
	}
	return sum, nil
}
