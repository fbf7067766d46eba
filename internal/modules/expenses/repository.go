package expenses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// Store persists expenses. Each call is atomic.
type Store interface {
	LoadAll(ctx context.Context) ([]Expense, error)
	// LoadByID returns nil, nil when no expense has id.
	LoadByID(ctx context.Context, id int64) (*Expense, error)
	// LoadBetween returns expenses dated within [start, end], optionally
	// restricted to one category.
	LoadBetween(ctx context.Context, start, end domain.Date, category string) ([]Expense, error)
	LoadByCategory(ctx context.Context, category string) ([]Expense, error)
	// Save inserts when ID is 0, assigning the new ID, and updates otherwise.
	Save(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, id int64) error
}

// Repository is the SQLite-backed Store.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// expenseColumns must match scanExpense.
const expenseColumns = `id, description, amount, date, category, payment_method`

// NewRepository creates an expense repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "expenses").Logger(),
	}
}

// LoadAll returns every expense, newest first.
func (r *Repository) LoadAll(ctx context.Context) ([]Expense, error) {
	return r.query(ctx, "SELECT "+expenseColumns+" FROM expenses ORDER BY date DESC, id DESC")
}

// LoadBetween returns expenses in the inclusive date range.
func (r *Repository) LoadBetween(ctx context.Context, start, end domain.Date, category string) ([]Expense, error) {
	if category == "" {
		return r.query(ctx, `
			SELECT `+expenseColumns+` FROM expenses
			WHERE date >= ? AND date <= ?
			ORDER BY date, id
		`, start.String(), end.String())
	}
	return r.query(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE category = ? AND date >= ? AND date <= ?
		ORDER BY date, id
	`, category, start.String(), end.String())
}

// LoadByCategory returns every expense in category, newest first.
func (r *Repository) LoadByCategory(ctx context.Context, category string) ([]Expense, error) {
	return r.query(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE category = ? ORDER BY date DESC, id DESC", category)
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return out, nil
}

// LoadByID returns one expense.
func (r *Repository) LoadByID(ctx context.Context, id int64) (*Expense, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense %d: %w", id, err)
	}
	return &e, nil
}

// Save inserts or updates e.
func (r *Repository) Save(ctx context.Context, e *Expense) error {
	if e.ID == 0 {
		result, err := r.db.ExecContext(ctx, `
			INSERT INTO expenses (description, amount, date, category, payment_method)
			VALUES (?, ?, ?, ?, ?)
		`, e.Description, e.Amount.String(), e.Date, e.Category, e.PaymentMethod)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get insert ID: %w", err)
		}
		e.ID = id
		return nil
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET description = ?, amount = ?, date = ?, category = ?, payment_method = ?
		WHERE id = ?
	`, e.Description, e.Amount.String(), e.Date, e.Category, e.PaymentMethod, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update expense %d: %w", e.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update expense %d: %w", e.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes an expense.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete expense %d: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(s scanner) (Expense, error) {
	var e Expense
	err := s.Scan(&e.ID, &e.Description, &e.Amount, &e.Date, &e.Category, &e.PaymentMethod)
	return e, err
}
