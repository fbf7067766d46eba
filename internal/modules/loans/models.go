// Package loans tracks amortizing loans and replays elapsed installments
// against their outstanding balance.
package loans

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

// Loan is an amortizing loan. A zero EMI or CurrentBalance means unset.
type Loan struct {
	ID             int64               `json:"id"`
	Name           string              `json:"name"`
	Principal      decimal.Decimal     `json:"principal"`
	InterestRate   decimal.Decimal     `json:"interestRate"`
	InterestType   domain.InterestType `json:"interestType"`
	Compounding    domain.Compounding  `json:"compounding"`
	StartDate      domain.Date         `json:"startDate"`
	TenureMonths   int                 `json:"tenureMonths"`
	EMI            decimal.Decimal     `json:"emi"`
	CurrentBalance decimal.Decimal     `json:"currentBalance"`
	LastUpdated    domain.Date         `json:"lastUpdated"`
}

// Edit is the body of a loan update. EMI and CurrentBalance are nullable:
// omitting them keeps the stored values, while an explicit 0 balance records
// the loan as repaid.
type Edit struct {
	Loan
	EMI            decimal.NullDecimal `json:"emi"`
	CurrentBalance decimal.NullDecimal `json:"currentBalance"`
}

// Validate checks the user-supplied fields and normalizes the enumerations.
func (l *Loan) Validate() error {
	var problems []string

	if strings.TrimSpace(l.Name) == "" {
		problems = append(problems, "name is required")
	}
	if !l.Principal.IsPositive() {
		problems = append(problems, "principal must be positive")
	}
	if !l.InterestRate.IsPositive() {
		problems = append(problems, "interest rate must be positive")
	}
	if l.TenureMonths <= 0 {
		problems = append(problems, "tenure must be positive")
	}
	if l.CurrentBalance.IsNegative() || l.CurrentBalance.GreaterThan(l.Principal) {
		problems = append(problems, "current balance must be between 0 and principal")
	}

	it, err := domain.ParseInterestType(string(l.InterestType))
	if l.InterestType == "" {
		it, err = domain.InterestSimple, nil
	}
	if err != nil {
		problems = append(problems, err.Error())
	}
	l.InterestType = it

	c, err := domain.ParseCompounding(string(l.Compounding))
	if err != nil {
		problems = append(problems, err.Error())
	}
	l.Compounding = c

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// EndDate is the start date plus the tenure, zero when there is no start date.
func (l *Loan) EndDate() domain.Date {
	if l.StartDate.IsZero() {
		return domain.Date{}
	}
	return l.StartDate.AddMonths(l.TenureMonths)
}

// RemainingMonths is the number of whole months from today to the end date.
func (l *Loan) RemainingMonths(today domain.Date) int {
	end := l.EndDate()
	if end.IsZero() {
		return 0
	}
	return today.MonthsUntil(end)
}

// TotalRepayment is EMI times tenure.
func (l *Loan) TotalRepayment() decimal.Decimal {
	return l.EMI.Mul(decimal.NewFromInt(int64(l.TenureMonths)))
}

// TotalInterest is the total repayment less the principal.
func (l *Loan) TotalInterest() decimal.Decimal {
	return l.TotalRepayment().Sub(l.Principal)
}

// View is a loan with its derived figures, as served over the API.
type View struct {
	Loan
	EndDate         domain.Date     `json:"endDate"`
	RemainingMonths int             `json:"remainingMonths"`
	TotalRepayment  decimal.Decimal `json:"totalRepayment"`
	TotalInterest   decimal.Decimal `json:"totalInterest"`
}

// NewView computes the derived figures of l as of today.
func NewView(l Loan, today domain.Date) View {
	return View{
		Loan:            l,
		EndDate:         l.EndDate(),
		RemainingMonths: l.RemainingMonths(today),
		TotalRepayment:  l.TotalRepayment(),
		TotalInterest:   l.TotalInterest(),
	}
}

// Summary aggregates all loans.
type Summary struct {
	TotalBalance decimal.Decimal `json:"totalBalance"`
	TotalEMI     decimal.Decimal `json:"totalEmi"`
	Count        int             `json:"count"`
}
