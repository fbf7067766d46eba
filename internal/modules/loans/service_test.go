package loans

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/clock"
	"github.com/aristath/fintrack/internal/domain"
)

var silent = zerolog.New(nil).Level(zerolog.Disabled)

// memoryStore is an in-memory Store.
type memoryStore struct {
	mu      sync.Mutex
	loans   map[int64]Loan
	nextID  int64
	saveErr error
	saves   int
}

func newMemoryStore(loans ...Loan) *memoryStore {
	m := &memoryStore{loans: map[int64]Loan{}}
	for _, l := range loans {
		m.loans[l.ID] = l
		if l.ID > m.nextID {
			m.nextID = l.ID
		}
	}
	return m
}

func (m *memoryStore) LoadAll(ctx context.Context) ([]Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Loan, 0, len(m.loans))
	for id := int64(1); id <= m.nextID; id++ {
		if l, ok := m.loans[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memoryStore) LoadByID(ctx context.Context, id int64) (*Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m *memoryStore) Save(ctx context.Context, l *Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	if l.ID == 0 {
		m.nextID++
		l.ID = m.nextID
	}
	m.loans[l.ID] = *l
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.loans, id)
	return nil
}

func fakeClockOn(y int, m time.Month, d int) *clock.Fake {
	return clock.NewFake(time.Date(y, m, d, 18, 0, 0, 0, time.Local))
}

func TestCreate_DefaultsDerivedFields(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, fakeClockOn(2026, time.October, 18), silent)

	l := &Loan{Name: "Car", Principal: dec("100000"), InterestRate: dec("12"), TenureMonths: 12,
		StartDate: domain.NewDate(2026, 10, 1)}
	require.NoError(t, svc.Create(context.Background(), l))

	assert.Equal(t, int64(1), l.ID)
	assertDecimal(t, "8884.88", l.EMI)
	assertDecimal(t, "100000", l.CurrentBalance)
	assert.Equal(t, domain.NewDate(2026, 10, 18), l.LastUpdated)
}

func TestCreate_KeepsExplicitValues(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, fakeClockOn(2026, time.October, 18), silent)

	l := &Loan{Name: "Car", Principal: dec("100000"), InterestRate: dec("12"), TenureMonths: 12,
		EMI: dec("9000"), CurrentBalance: dec("40000"), LastUpdated: domain.NewDate(2026, 6, 1)}
	require.NoError(t, svc.Create(context.Background(), l))

	assertDecimal(t, "9000", l.EMI)
	assertDecimal(t, "40000", l.CurrentBalance)
	assert.Equal(t, domain.NewDate(2026, 6, 1), l.LastUpdated)
}

func TestCreate_RejectsInvalid(t *testing.T) {
	svc := NewService(newMemoryStore(), fakeClockOn(2026, time.October, 18), silent)

	err := svc.Create(context.Background(), &Loan{Name: "Bad", Principal: dec("-1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdate_KeepsStoredInstallment(t *testing.T) {
	stored := baseLoan()
	stored.CurrentBalance = dec("62000")
	store := newMemoryStore(stored)
	svc := NewService(store, fakeClockOn(2026, time.October, 18), silent)

	edit := Edit{Loan: baseLoan()}
	edit.Name = "Car (refinanced)"
	updated, err := svc.Update(context.Background(), 1, edit)
	require.NoError(t, err)
	assert.Equal(t, "Car (refinanced)", updated.Name)

	got, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Car (refinanced)", got.Name)
	assertDecimal(t, "8884.88", got.EMI)
	assertDecimal(t, "62000", got.CurrentBalance)

	_, err = svc.Update(context.Background(), 99, edit)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_ExplicitZeroBalanceRetiresLoan(t *testing.T) {
	store := newMemoryStore(baseLoan())
	svc := NewService(store, fakeClockOn(2026, time.October, 18), silent)

	edit := Edit{
		Loan:           baseLoan(),
		CurrentBalance: decimal.NullDecimal{Decimal: decimal.Zero, Valid: true},
		EMI:            decimal.NewNullDecimal(dec("9100")),
	}
	_, err := svc.Update(context.Background(), 1, edit)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.IsZero())
	assertDecimal(t, "9100", got.EMI)
}

func TestUpdate_RejectsBalanceAbovePrincipal(t *testing.T) {
	store := newMemoryStore(baseLoan())
	svc := NewService(store, fakeClockOn(2026, time.October, 18), silent)

	edit := Edit{Loan: baseLoan(), CurrentBalance: decimal.NewNullDecimal(dec("100000.01"))}
	_, err := svc.Update(context.Background(), 1, edit)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDelete(t *testing.T) {
	store := newMemoryStore(baseLoan())
	svc := NewService(store, fakeClockOn(2026, time.October, 18), silent)

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.ErrorIs(t, svc.Delete(context.Background(), 1), domain.ErrNotFound)
}

func TestRefreshBalances(t *testing.T) {
	due := baseLoan()

	fresh := baseLoan()
	fresh.ID = 2
	fresh.LastUpdated = domain.NewDate(2026, 3, 15)

	orphan := baseLoan()
	orphan.ID = 3
	orphan.LastUpdated = domain.Date{}
	orphan.StartDate = domain.Date{}

	store := newMemoryStore(due, fresh, orphan)
	svc := NewService(store, fakeClockOn(2026, time.March, 15), silent)

	tally, err := svc.RefreshBalances(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, tally.Updated)
	assert.Equal(t, 2, tally.Skipped)
	assert.Equal(t, 1, store.saves, "only changed loans are written")

	got, _ := svc.Get(context.Background(), 1)
	assertDecimal(t, "84151.39", got.CurrentBalance)

	// A second run on the same day changes nothing.
	tally, err = svc.RefreshBalances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, tally.Updated)
	assert.Equal(t, 3, tally.Skipped)
}

func TestRefreshBalances_SaveFailureIsCounted(t *testing.T) {
	store := newMemoryStore(baseLoan())
	store.saveErr = errors.New("disk full")
	svc := NewService(store, fakeClockOn(2026, time.March, 15), silent)

	tally, err := svc.RefreshBalances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Failed)
}

func TestSummary(t *testing.T) {
	second := baseLoan()
	second.ID = 2
	second.CurrentBalance = dec("2500.50")
	second.EMI = dec("100")

	svc := NewService(newMemoryStore(baseLoan(), second), fakeClockOn(2026, time.March, 15), silent)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assertDecimal(t, "102500.50", sum.TotalBalance)
	assertDecimal(t, "8984.88", sum.TotalEMI)
	assert.Equal(t, 2, sum.Count)
}
