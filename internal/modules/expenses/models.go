// Package expenses records spending and reports totals by period and category.
package expenses

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

// Expense is one spending record.
type Expense struct {
	ID            int64           `json:"id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Date          domain.Date     `json:"date"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"paymentMethod"`
}

// Validate checks the user-supplied fields.
func (e *Expense) Validate() error {
	var problems []string

	e.Category = strings.TrimSpace(e.Category)
	if strings.TrimSpace(e.Description) == "" {
		problems = append(problems, "description is required")
	}
	if !e.Amount.IsPositive() {
		problems = append(problems, "amount must be positive")
	}
	if e.Category == "" {
		problems = append(problems, "category is required")
	}
	if strings.TrimSpace(e.PaymentMethod) == "" {
		problems = append(problems, "payment method is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// Summary is the spending over one period.
type Summary struct {
	StartDate          domain.Date                `json:"startDate"`
	EndDate            domain.Date                `json:"endDate"`
	TotalExpenses      decimal.Decimal            `json:"totalExpenses"`
	ExpensesByCategory map[string]decimal.Decimal `json:"expensesByCategory"`
}
