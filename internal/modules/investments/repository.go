package investments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// Store persists positions. Each call is atomic.
type Store interface {
	LoadAll(ctx context.Context) ([]Instrument, error)
	// LoadByID returns nil, nil when no position has id.
	LoadByID(ctx context.Context, id int64) (*Instrument, error)
	// Save inserts when ID is 0, assigning the new ID, and updates otherwise.
	Save(ctx context.Context, i *Instrument) error
	Delete(ctx context.Context, id int64) error
}

// Repository is the SQLite-backed Store.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// instrumentColumns must match scanInstrument.
const instrumentColumns = `id, name, symbol, kind, quantity, purchase_price, current_price,
purchase_date, last_updated`

// NewRepository creates an investment repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "investments").Logger(),
	}
}

// LoadAll returns every position ordered by ID.
func (r *Repository) LoadAll(ctx context.Context) ([]Instrument, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+instrumentColumns+" FROM investments ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query investments: %w", err)
	}
	defer rows.Close()

	var out []Instrument
	for rows.Next() {
		i, err := scanInstrument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investments: %w", err)
	}

	return out, nil
}

// LoadByID returns one position.
func (r *Repository) LoadByID(ctx context.Context, id int64) (*Instrument, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+instrumentColumns+" FROM investments WHERE id = ?", id)
	i, err := scanInstrument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investment %d: %w", id, err)
	}
	return &i, nil
}

// Save inserts or updates i.
func (r *Repository) Save(ctx context.Context, i *Instrument) error {
	if i.ID == 0 {
		result, err := r.db.ExecContext(ctx, `
			INSERT INTO investments
			(name, symbol, kind, quantity, purchase_price, current_price, purchase_date, last_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			i.Name, i.Symbol, string(i.Kind), i.Quantity.String(), i.PurchasePrice.String(),
			i.CurrentPrice.String(), i.PurchaseDate, i.LastUpdated,
		)
		if err != nil {
			return fmt.Errorf("failed to insert investment: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get insert ID: %w", err)
		}
		i.ID = id

		r.log.Info().Int64("id", id).Str("symbol", i.Symbol).Msg("Investment created")
		return nil
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE investments SET
			name = ?, symbol = ?, kind = ?, quantity = ?, purchase_price = ?,
			current_price = ?, purchase_date = ?, last_updated = ?
		WHERE id = ?
	`,
		i.Name, i.Symbol, string(i.Kind), i.Quantity.String(), i.PurchasePrice.String(),
		i.CurrentPrice.String(), i.PurchaseDate, i.LastUpdated,
		i.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update investment %d: %w", i.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update investment %d: %w", i.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a position.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM investments WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete investment %d: %w", id, err)
	}
	r.log.Info().Int64("id", id).Msg("Investment deleted")
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInstrument(s scanner) (Instrument, error) {
	var (
		i    Instrument
		kind string
	)

	err := s.Scan(
		&i.ID, &i.Name, &i.Symbol, &kind, &i.Quantity, &i.PurchasePrice, &i.CurrentPrice,
		&i.PurchaseDate, &i.LastUpdated,
	)
	if err != nil {
		return Instrument{}, err
	}
	i.Kind = domain.InstrumentKind(kind)
	return i, nil
}
