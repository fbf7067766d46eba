package plans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

// Store persists plans. Each call is atomic.
type Store interface {
	LoadAll(ctx context.Context) ([]Plan, error)
	// LoadByID returns nil, nil when no plan has id.
	LoadByID(ctx context.Context, id int64) (*Plan, error)
	// Save inserts when ID is 0, assigning the new ID, and updates otherwise.
	Save(ctx context.Context, p *Plan) error
	// SaveNAV writes only the NAV and refresh date of plan id, leaving the
	// contribution columns to the contribution run.
	SaveNAV(ctx context.Context, id int64, nav decimal.Decimal, asOf domain.Date) error
	Delete(ctx context.Context, id int64) error
}

// Repository is the SQLite-backed Store.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// planColumns must match scanPlan.
const planColumns = `id, name, scheme_code, monthly_amount, start_date, duration_months,
current_nav, total_units, last_investment_date, last_updated`

// NewRepository creates a plan repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "plans").Logger(),
	}
}

// LoadAll returns every plan ordered by ID.
func (r *Repository) LoadAll(ctx context.Context) ([]Plan, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+planColumns+" FROM plans ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}

	return plans, nil
}

// LoadByID returns one plan.
func (r *Repository) LoadByID(ctx context.Context, id int64) (*Plan, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+planColumns+" FROM plans WHERE id = ?", id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan %d: %w", id, err)
	}
	return &p, nil
}

// Save inserts or updates p.
func (r *Repository) Save(ctx context.Context, p *Plan) error {
	duration := sql.NullInt64{Int64: int64(p.DurationMonths), Valid: p.DurationMonths > 0}

	if p.ID == 0 {
		result, err := r.db.ExecContext(ctx, `
			INSERT INTO plans
			(name, scheme_code, monthly_amount, start_date, duration_months,
			 current_nav, total_units, last_investment_date, last_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			p.Name, p.SchemeCode, p.MonthlyAmount.String(), p.StartDate, duration,
			p.CurrentNAV.String(), p.TotalUnits.String(), p.LastInvestmentDate, p.LastUpdated,
		)
		if err != nil {
			return fmt.Errorf("failed to insert plan: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get insert ID: %w", err)
		}
		p.ID = id

		r.log.Info().Int64("id", id).Str("scheme", p.SchemeCode).Msg("Plan created")
		return nil
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE plans SET
			name = ?, scheme_code = ?, monthly_amount = ?, start_date = ?, duration_months = ?,
			current_nav = ?, total_units = ?, last_investment_date = ?, last_updated = ?
		WHERE id = ?
	`,
		p.Name, p.SchemeCode, p.MonthlyAmount.String(), p.StartDate, duration,
		p.CurrentNAV.String(), p.TotalUnits.String(), p.LastInvestmentDate, p.LastUpdated,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan %d: %w", p.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update plan %d: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

// SaveNAV updates the NAV columns of one plan.
func (r *Repository) SaveNAV(ctx context.Context, id int64, nav decimal.Decimal, asOf domain.Date) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE plans SET current_nav = ?, last_updated = ? WHERE id = ?",
		nav.String(), asOf, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update NAV of plan %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update NAV of plan %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a plan.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM plans WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete plan %d: %w", id, err)
	}
	r.log.Info().Int64("id", id).Msg("Plan deleted")
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPlan(s scanner) (Plan, error) {
	var (
		p        Plan
		duration sql.NullInt64
	)

	err := s.Scan(
		&p.ID, &p.Name, &p.SchemeCode, &p.MonthlyAmount, &p.StartDate, &duration,
		&p.CurrentNAV, &p.TotalUnits, &p.LastInvestmentDate, &p.LastUpdated,
	)
	if err != nil {
		return Plan{}, err
	}
	p.DurationMonths = int(duration.Int64)
	return p, nil
}
