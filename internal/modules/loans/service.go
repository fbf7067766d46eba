package loans

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/clock"
	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/refresh"
)

// Service owns the loan lifecycle and the amortization refresh.
type Service struct {
	store Store
	clock clock.Clock
	log   zerolog.Logger
}

// NewService creates a loan service.
func NewService(store Store, clk clock.Clock, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		clock: clk,
		log:   log.With().Str("service", "loans").Logger(),
	}
}

// Today is the service's current calendar date.
func (s *Service) Today() domain.Date {
	return domain.DateOf(s.clock.Now())
}

// List returns every loan.
func (s *Service) List(ctx context.Context) ([]Loan, error) {
	return s.store.LoadAll(ctx)
}

// Get returns one loan or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*Loan, error) {
	l, err := s.store.LoadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("loan %d: %w", id, domain.ErrNotFound)
	}
	return l, nil
}

// Create validates and stores a new loan. The EMI is computed when unset,
// the balance starts at the principal when unset, and the loan counts as
// refreshed today unless a date is given.
func (s *Service) Create(ctx context.Context, l *Loan) error {
	l.ID = 0
	if err := l.Validate(); err != nil {
		return err
	}

	if l.LastUpdated.IsZero() {
		l.LastUpdated = s.Today()
	}
	if l.EMI.IsZero() {
		emi, err := ComputeEMI(l.Principal, l.InterestRate, l.TenureMonths)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		l.EMI = emi
	}
	if l.CurrentBalance.IsZero() {
		l.CurrentBalance = l.Principal
	}

	return s.store.Save(ctx, l)
}

// Update replaces a loan's fields. An omitted EMI, balance or refresh date
// keeps the stored value.
func (s *Service) Update(ctx context.Context, id int64, e Edit) (*Loan, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	l := e.Loan
	l.ID = id
	l.EMI = existing.EMI
	if e.EMI.Valid && e.EMI.Decimal.IsPositive() {
		l.EMI = e.EMI.Decimal
	}
	l.CurrentBalance = existing.CurrentBalance
	if e.CurrentBalance.Valid {
		l.CurrentBalance = e.CurrentBalance.Decimal
	}
	if l.LastUpdated.IsZero() {
		l.LastUpdated = existing.LastUpdated
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Delete removes a loan or returns domain.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// RefreshBalances catches every loan up to today and saves the ones that changed.
func (s *Service) RefreshBalances(ctx context.Context) (refresh.Tally, error) {
	var tally refresh.Tally

	loans, err := s.store.LoadAll(ctx)
	if err != nil {
		return tally, fmt.Errorf("failed to load loans: %w", err)
	}

	today := s.Today()
	for _, l := range loans {
		if err := ctx.Err(); err != nil {
			return tally, err
		}

		updated, changed, reason := CatchUp(l, today)
		if !changed {
			s.log.Debug().Int64("loan_id", l.ID).Str("reason", reason).Msg("Loan skipped")
			tally.Skipped++
			continue
		}

		if err := s.store.Save(ctx, &updated); err != nil {
			s.log.Error().Err(err).Int64("loan_id", l.ID).Msg("Failed to save loan balance")
			tally.Failed++
			continue
		}

		s.log.Info().
			Int64("loan_id", l.ID).
			Str("previous_balance", l.CurrentBalance.String()).
			Str("balance", updated.CurrentBalance.String()).
			Msg("Loan balance updated")
		tally.Updated++
	}

	return tally, nil
}

// Summary totals balances and installments across all loans.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	loans, err := s.store.LoadAll(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{TotalBalance: decimal.Zero, TotalEMI: decimal.Zero, Count: len(loans)}
	for _, l := range loans {
		sum.TotalBalance = sum.TotalBalance.Add(l.CurrentBalance)
		sum.TotalEMI = sum.TotalEMI.Add(l.EMI)
	}
	return sum, nil
}
