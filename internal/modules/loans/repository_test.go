package loans

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/domain"
	testingpkg "github.com/aristath/fintrack/internal/testing"
)

func TestRepository_RoundTrip(t *testing.T) {
	db := testingpkg.NewTestDB(t, "fintrack")
	repo := NewRepository(db.Conn(), silent)
	ctx := context.Background()

	l := baseLoan()
	l.ID = 0
	l.InterestType = domain.InterestCompound
	l.Compounding = domain.CompoundQuarterly
	require.NoError(t, repo.Save(ctx, &l))
	require.NotZero(t, l.ID)

	got, err := repo.LoadByID(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Car", got.Name)
	assertDecimal(t, "8884.88", got.EMI)
	assertDecimal(t, "100000", got.CurrentBalance)
	assert.Equal(t, domain.InterestCompound, got.InterestType)
	assert.Equal(t, domain.CompoundQuarterly, got.Compounding)
	assert.Equal(t, domain.NewDate(2026, 1, 15), got.StartDate)

	got.CurrentBalance = dec("92115.12")
	got.LastUpdated = domain.NewDate(2026, 2, 15)
	require.NoError(t, repo.Save(ctx, got))

	all, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assertDecimal(t, "92115.12", all[0].CurrentBalance)
	assert.Equal(t, domain.NewDate(2026, 2, 15), all[0].LastUpdated)

	require.NoError(t, repo.Delete(ctx, l.ID))
	missing, err := repo.LoadByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_NullableColumns(t *testing.T) {
	db := testingpkg.NewTestDB(t, "fintrack")
	repo := NewRepository(db.Conn(), silent)
	ctx := context.Background()

	_, err := db.Conn().Exec(`INSERT INTO loans (name, principal, interest_rate) VALUES ('Legacy', '5000', '9')`)
	require.NoError(t, err)

	all, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].EMI.IsZero())
	assert.True(t, all[0].StartDate.IsZero())
	assert.True(t, all[0].LastUpdated.IsZero())
}

func TestRepository_UpdateMissing(t *testing.T) {
	db := testingpkg.NewTestDB(t, "fintrack")
	repo := NewRepository(db.Conn(), silent)

	l := baseLoan()
	l.ID = 42
	assert.ErrorIs(t, repo.Save(context.Background(), &l), domain.ErrNotFound)
}
