package loans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

// Store persists loans. Each call is atomic.
type Store interface {
	LoadAll(ctx context.Context) ([]Loan, error)
	// LoadByID returns nil, nil when no loan has id.
	LoadByID(ctx context.Context, id int64) (*Loan, error)
	// Save inserts when ID is 0, assigning the new ID, and updates otherwise.
	Save(ctx context.Context, l *Loan) error
	Delete(ctx context.Context, id int64) error
}

// Repository is the SQLite-backed Store.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// loanColumns must match scanLoan.
const loanColumns = `id, name, principal, interest_rate, interest_type, compounding,
start_date, tenure_months, emi, current_balance, last_updated`

// NewRepository creates a loan repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "loans").Logger(),
	}
}

// LoadAll returns every loan ordered by ID.
func (r *Repository) LoadAll(ctx context.Context) ([]Loan, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+loanColumns+" FROM loans ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	var loans []Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loans: %w", err)
	}

	return loans, nil
}

// LoadByID returns one loan.
func (r *Repository) LoadByID(ctx context.Context, id int64) (*Loan, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+loanColumns+" FROM loans WHERE id = ?", id)
	l, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan %d: %w", id, err)
	}
	return &l, nil
}

// Save inserts or updates l.
func (r *Repository) Save(ctx context.Context, l *Loan) error {
	if l.ID == 0 {
		result, err := r.db.ExecContext(ctx, `
			INSERT INTO loans
			(name, principal, interest_rate, interest_type, compounding,
			 start_date, tenure_months, emi, current_balance, last_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			l.Name, l.Principal.String(), l.InterestRate.String(), string(l.InterestType), string(l.Compounding),
			l.StartDate, l.TenureMonths, l.EMI.String(), l.CurrentBalance.String(), l.LastUpdated,
		)
		if err != nil {
			return fmt.Errorf("failed to insert loan: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get insert ID: %w", err)
		}
		l.ID = id

		r.log.Info().Int64("id", id).Str("name", l.Name).Msg("Loan created")
		return nil
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE loans SET
			name = ?, principal = ?, interest_rate = ?, interest_type = ?, compounding = ?,
			start_date = ?, tenure_months = ?, emi = ?, current_balance = ?, last_updated = ?
		WHERE id = ?
	`,
		l.Name, l.Principal.String(), l.InterestRate.String(), string(l.InterestType), string(l.Compounding),
		l.StartDate, l.TenureMonths, l.EMI.String(), l.CurrentBalance.String(), l.LastUpdated,
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update loan %d: %w", l.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update loan %d: %w", l.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a loan. Deleting a missing loan is not an error.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM loans WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete loan %d: %w", id, err)
	}
	r.log.Info().Int64("id", id).Msg("Loan deleted")
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLoan(s scanner) (Loan, error) {
	var (
		l            Loan
		interestType string
		compounding  string
		emi          decimal.NullDecimal
		balance      decimal.NullDecimal
	)

	err := s.Scan(
		&l.ID, &l.Name, &l.Principal, &l.InterestRate, &interestType, &compounding,
		&l.StartDate, &l.TenureMonths, &emi, &balance, &l.LastUpdated,
	)
	if err != nil {
		return Loan{}, err
	}

	l.InterestType = domain.InterestType(interestType)
	l.Compounding = domain.Compounding(compounding)
	l.EMI = emi.Decimal
	l.CurrentBalance = balance.Decimal
	return l, nil
}
