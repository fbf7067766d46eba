package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/refresh"
)

const schema = `
CREATE TABLE refresh_runs (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    payload BLOB NOT NULL
);`

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(schema)
	require.NoError(t, err)

	return NewRepository(db, zerolog.New(nil).Level(zerolog.Disabled))
}

func report(id string, kind refresh.Kind, start time.Time, tally refresh.Tally, errMsg string) refresh.RunReport {
	return refresh.RunReport{
		ID:         id,
		Kind:       kind,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Tally:      tally,
		Error:      errMsg,
	}
}

func TestSaveAndRecent(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	t0 := time.Date(2026, time.October, 18, 18, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, report("a", refresh.KindPrices, t0, refresh.Tally{Updated: 4, Failed: 1, ConfigErrors: 1}, "")))
	require.NoError(t, repo.Save(ctx, report("b", refresh.KindNAVs, t0.Add(time.Hour), refresh.Tally{}, "nav table unavailable")))
	require.NoError(t, repo.Save(ctx, report("c", refresh.KindPrices, t0.Add(2*time.Hour), refresh.Tally{Skipped: 2}, "")))

	all, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	oldest := all[2]
	assert.Equal(t, refresh.KindPrices, oldest.Kind)
	assert.Equal(t, refresh.Tally{Updated: 4, Failed: 1, ConfigErrors: 1}, oldest.Tally)
	assert.True(t, t0.Equal(oldest.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, oldest.Duration())
	assert.True(t, all[1].Failed())

	prices, err := repo.RecentByKind(ctx, refresh.KindPrices, 10)
	require.NoError(t, err)
	require.Len(t, prices, 2)

	last, err := repo.Last(ctx, refresh.KindNAVs)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "nav table unavailable", last.Error)

	none, err := repo.Last(ctx, refresh.KindAmortization)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestPrune(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	t0 := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, repo.Save(ctx, report(id, refresh.KindPrices, t0.AddDate(0, 0, i*20), refresh.Tally{}, "")))
	}

	n, err := repo.Prune(ctx, t0.AddDate(0, 0, 20))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	left, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestRecorderContract(t *testing.T) {
	var _ refresh.Recorder = setupRepo(t)
}
