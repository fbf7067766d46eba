package reliability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/clock"
	testingpkg "github.com/aristath/fintrack/internal/testing"
)

type recordingPruner struct {
	cutoff time.Time
	err    error
}

func (p *recordingPruner) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoff = cutoff
	return 2, p.err
}

func TestMaintenanceJob(t *testing.T) {
	db := testingpkg.NewTestDB(t, "fintrack")
	now := time.Date(2026, time.October, 18, 2, 0, 0, 0, time.UTC)
	pruner := &recordingPruner{}

	job := NewMaintenanceJob(db, pruner, clock.NewFake(now), 90*24*time.Hour, t.TempDir(), silent)
	assert.Equal(t, "maintenance", job.Name())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.Add(-90*24*time.Hour), pruner.cutoff)

	// prune failures are logged, not fatal
	pruner.err = errors.New("locked")
	assert.NoError(t, job.Run(context.Background()))
}

func TestMaintenanceJob_ClosedDatabase(t *testing.T) {
	db := testingpkg.NewTestDB(t, "fintrack")
	require.NoError(t, db.Close())

	job := NewMaintenanceJob(db, nil, clock.NewFake(time.Now()), 0, "", silent)
	assert.Error(t, job.Run(context.Background()))
}
