package investments

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

	i := positions()[0]
	i.ID = 0
	i.Kind = domain.KindMutualFund
	i.PurchaseDate = domain.NewDate(2025, 3, 31)
	require.NoError(t, repo.Save(ctx, &i))

	got, err := repo.LoadByID(ctx, i.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "INFY", got.Symbol)
	assert.Equal(t, domain.KindMutualFund, got.Kind)
	assertDecimal(t, "1450", got.CurrentPrice)
	assert.Equal(t, domain.NewDate(2025, 3, 31), got.PurchaseDate)

	got.CurrentPrice = dec("1520.35")
	require.NoError(t, repo.Save(ctx, got))

	all, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assertDecimal(t, "1520.35", all[0].CurrentPrice)

	require.NoError(t, repo.Delete(ctx, i.ID))
	missing, err := repo.LoadByID(ctx, i.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
