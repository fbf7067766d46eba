// Package history stores refresh run reports.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/fintrack/internal/refresh"
)

// DefaultLimit caps Recent when the caller passes a non-positive limit.
const DefaultLimit = 50

// Repository keeps one row per completed run. The tally is stored as a
// msgpack payload so new counters do not need a migration.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a run history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// Save stores a run report. Saving the same ID twice replaces the row.
func (r *Repository) Save(ctx context.Context, report refresh.RunReport) error {
	payload, err := msgpack.Marshal(report.Tally)
	if err != nil {
		return fmt.Errorf("failed to encode tally for run %s: %w", report.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO refresh_runs (id, kind, started_at, finished_at, error, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`, report.ID, string(report.Kind), report.StartedAt.UnixMilli(), report.FinishedAt.UnixMilli(), report.Error, payload)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", report.ID, err)
	}

	r.log.Debug().Str("run_id", report.ID).Str("kind", string(report.Kind)).Msg("Run recorded")
	return nil
}

// Recent returns up to limit reports, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]refresh.RunReport, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return r.query(ctx, `
		SELECT id, kind, started_at, finished_at, error, payload
		FROM refresh_runs
		ORDER BY started_at DESC, id
		LIMIT ?
	`, limit)
}

// RecentByKind returns up to limit reports of one kind, newest first.
func (r *Repository) RecentByKind(ctx context.Context, kind refresh.Kind, limit int) ([]refresh.RunReport, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return r.query(ctx, `
		SELECT id, kind, started_at, finished_at, error, payload
		FROM refresh_runs
		WHERE kind = ?
		ORDER BY started_at DESC, id
		LIMIT ?
	`, string(kind), limit)
}

// Last returns the most recent report of kind, or nil if it never ran.
func (r *Repository) Last(ctx context.Context, kind refresh.Kind) (*refresh.RunReport, error) {
	list, err := r.RecentByKind(ctx, kind, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// Prune deletes runs that started before cutoff and returns how many went.
func (r *Repository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM refresh_runs WHERE started_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune run history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned runs: %w", err)
	}
	return n, nil
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]refresh.RunReport, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	out := []refresh.RunReport{}
	for rows.Next() {
		var (
			report            refresh.RunReport
			kind              string
			started, finished int64
			payload           []byte
		)
		if err := rows.Scan(&report.ID, &kind, &started, &finished, &report.Error, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := msgpack.Unmarshal(payload, &report.Tally); err != nil {
			r.log.Warn().Err(err).Str("run_id", report.ID).Msg("Undecodable tally, reporting zeros")
		}
		report.Kind = refresh.Kind(kind)
		report.StartedAt = time.UnixMilli(started).UTC()
		report.FinishedAt = time.UnixMilli(finished).UTC()
		out = append(out, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run history: %w", err)
	}
	return out, nil
}
