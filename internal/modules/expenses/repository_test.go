package expenses

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/domain"
	testingpkg "github.com/aristath/fintrack/internal/testing"
)

func TestRepository_CategoryWindow(t *testing.T) {
	db := testingpkg.NewTestDB(t, "fintrack")
	repo := NewRepository(db.Conn(), silent)
	ctx := context.Background()

	for _, e := range []Expense{
		{Description: "a", Amount: dec("10"), Date: domain.NewDate(2026, 3, 31), Category: "Food", PaymentMethod: "Cash"},
		{Description: "b", Amount: dec("20"), Date: domain.NewDate(2026, 4, 1), Category: "Food", PaymentMethod: "Cash"},
		{Description: "c", Amount: dec("30"), Date: domain.NewDate(2026, 4, 30), Category: "Travel", PaymentMethod: "Card"},
	} {
		require.NoError(t, repo.Save(ctx, &e))
	}

	april, err := repo.LoadBetween(ctx, domain.NewDate(2026, 4, 1), domain.NewDate(2026, 4, 30), "")
	require.NoError(t, err)
	require.Len(t, april, 2)
	assert.Equal(t, "b", april[0].Description)
	assert.Equal(t, "c", april[1].Description)

	food, err := repo.LoadBetween(ctx, domain.NewDate(2026, 3, 1), domain.NewDate(2026, 4, 30), "Food")
	require.NoError(t, err)
	require.Len(t, food, 2)

	all, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Description)
	assertDecimal(t, "30", all[0].Amount)
}

func TestRepository_UpdateMissing(t *testing.T) {
	db := testingpkg.NewTestDB(t, "fintrack")
	repo := NewRepository(db.Conn(), silent)

	e := Expense{ID: 42, Description: "ghost", Amount: dec("1"), Date: domain.NewDate(2026, 1, 1), Category: "X", PaymentMethod: "Cash"}
	assert.ErrorIs(t, repo.Save(context.Background(), &e), domain.ErrNotFound)

	got, err := repo.LoadByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}
