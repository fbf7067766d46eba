package expenses

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/clock"
	"github.com/aristath/fintrack/internal/domain"
)

// averageWindowMonths is the trailing window used by AverageMonthly.
const averageWindowMonths = 6

// Service owns expense records and spending analytics.
type Service struct {
	store Store
	clock clock.Clock
	log   zerolog.Logger
}

// NewService creates an expense service.
func NewService(store Store, clk clock.Clock, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		clock: clk,
		log:   log.With().Str("service", "expenses").Logger(),
	}
}

// Today is the service's current calendar date.
func (s *Service) Today() domain.Date {
	return domain.DateOf(s.clock.Now())
}

// List returns every expense.
func (s *Service) List(ctx context.Context) ([]Expense, error) {
	return s.store.LoadAll(ctx)
}

// Get returns one expense or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*Expense, error) {
	e, err := s.store.LoadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("expense %d: %w", id, domain.ErrNotFound)
	}
	return e, nil
}

// Create validates and stores a new expense, dated today unless given.
func (s *Service) Create(ctx context.Context, e *Expense) error {
	e.ID = 0
	if e.Date.IsZero() {
		e.Date = s.Today()
	}
	if err := e.Validate(); err != nil {
		return err
	}
	return s.store.Save(ctx, e)
}

// Update replaces an expense's fields.
func (s *Service) Update(ctx context.Context, id int64, e *Expense) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	e.ID = id
	if e.Date.IsZero() {
		e.Date = existing.Date
	}
	if err := e.Validate(); err != nil {
		return err
	}
	return s.store.Save(ctx, e)
}

// Delete removes an expense or returns domain.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// Between returns expenses dated within [start, end].
func (s *Service) Between(ctx context.Context, start, end domain.Date) ([]Expense, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %s is before start date %s", domain.ErrInvalidInput, end, start)
	}
	return s.store.LoadBetween(ctx, start, end, "")
}

// InCategory returns every expense in category.
func (s *Service) InCategory(ctx context.Context, category string) ([]Expense, error) {
	return s.store.LoadByCategory(ctx, category)
}

// Total sums expenses dated within [start, end].
func (s *Service) Total(ctx context.Context, start, end domain.Date) (decimal.Decimal, error) {
	list, err := s.Between(ctx, start, end)
	if err != nil {
		return decimal.Zero, err
	}
	return sum(list), nil
}

// ByCategory sums expenses dated within [start, end] per category.
func (s *Service) ByCategory(ctx context.Context, start, end domain.Date) (map[string]decimal.Decimal, error) {
	list, err := s.Between(ctx, start, end)
	if err != nil {
		return nil, err
	}

	return groupByCategory(list), nil
}

// AverageMonthly is the spending over the last six months divided by six,
// to two places. An empty category covers all spending.
func (s *Service) AverageMonthly(ctx context.Context, category string) (decimal.Decimal, error) {
	today := s.Today()
	list, err := s.store.LoadBetween(ctx, today.AddMonths(-averageWindowMonths), today, category)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.DivHalfUp(sum(list), decimal.NewFromInt(averageWindowMonths), domain.MoneyScale), nil
}

// Summary reports spending over [start, end]. A zero start means the first
// of the current month and a zero end means today.
func (s *Service) Summary(ctx context.Context, start, end domain.Date) (Summary, error) {
	today := s.Today()
	if start.IsZero() {
		start = today.FirstOfMonth()
	}
	if end.IsZero() {
		end = today
	}

	list, err := s.Between(ctx, start, end)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		StartDate:          start,
		EndDate:            end,
		TotalExpenses:      sum(list),
		ExpensesByCategory: groupByCategory(list),
	}, nil
}

func sum(list []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range list {
		total = total.Add(e.Amount)
	}
	return total
}

func groupByCategory(list []Expense) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range list {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}
