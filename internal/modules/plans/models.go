// Package plans simulates monthly recurring contributions into mutual fund
// schemes and keeps their reference price current.
package plans

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

// Plan is a systematic investment plan: a fixed amount invested into one
// scheme every calendar month.
type Plan struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	SchemeCode         string          `json:"schemeCode"`
	MonthlyAmount      decimal.Decimal `json:"monthlyAmount"`
	StartDate          domain.Date     `json:"startDate"`
	DurationMonths     int             `json:"durationMonths,omitempty"`
	CurrentNAV         decimal.Decimal `json:"currentNav"`
	TotalUnits         decimal.Decimal `json:"totalUnits"`
	LastInvestmentDate domain.Date     `json:"lastInvestmentDate"`
	LastUpdated        domain.Date     `json:"lastUpdated"`
}

// Validate checks the user-supplied fields.
func (p *Plan) Validate() error {
	var problems []string

	p.SchemeCode = strings.TrimSpace(p.SchemeCode)
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if p.SchemeCode == "" {
		problems = append(problems, "scheme code is required")
	}
	if !p.MonthlyAmount.IsPositive() {
		problems = append(problems, "monthly amount must be positive")
	}
	if p.DurationMonths < 0 {
		problems = append(problems, "duration cannot be negative")
	}
	if p.CurrentNAV.IsNegative() {
		problems = append(problems, "current NAV cannot be negative")
	}
	if p.TotalUnits.IsNegative() {
		problems = append(problems, "total units cannot be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// CurrentValue is units times NAV.
func (p *Plan) CurrentValue() decimal.Decimal {
	return p.TotalUnits.Mul(p.CurrentNAV)
}

// CompletedInstallments counts the months from the start date through the
// last contribution (or today when there has been none), inclusive.
func (p *Plan) CompletedInstallments(today domain.Date) int {
	if p.StartDate.IsZero() {
		return 0
	}
	end := p.LastInvestmentDate
	if end.IsZero() {
		end = today
	}
	if p.StartDate.After(end) {
		return 0
	}
	return p.StartDate.MonthsUntil(end) + 1
}

// TotalInvested is the monthly amount times the completed installments.
func (p *Plan) TotalInvested(today domain.Date) decimal.Decimal {
	return p.MonthlyAmount.Mul(decimal.NewFromInt(int64(p.CompletedInstallments(today))))
}

// ProfitLoss is current value less total invested.
func (p *Plan) ProfitLoss(today domain.Date) decimal.Decimal {
	return p.CurrentValue().Sub(p.TotalInvested(today))
}

// View is a plan with its derived figures, as served over the API.
type View struct {
	Plan
	CurrentValue          decimal.Decimal `json:"currentValue"`
	CompletedInstallments int             `json:"completedInstallments"`
	TotalInvested         decimal.Decimal `json:"totalInvested"`
	ProfitLoss            decimal.Decimal `json:"profitLoss"`
}

// NewView computes the derived figures of p as of today.
func NewView(p Plan, today domain.Date) View {
	return View{
		Plan:                  p,
		CurrentValue:          p.CurrentValue(),
		CompletedInstallments: p.CompletedInstallments(today),
		TotalInvested:         p.TotalInvested(today),
		ProfitLoss:            p.ProfitLoss(today),
	}
}

// Summary aggregates all plans.
type Summary struct {
	TotalInvestment   decimal.Decimal `json:"totalInvestment"`
	TotalCurrentValue decimal.Decimal `json:"totalCurrentValue"`
	TotalProfitLoss   decimal.Decimal `json:"totalProfitLoss"`
}
