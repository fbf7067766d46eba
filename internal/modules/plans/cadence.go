package plans

import (
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

// ShouldContribute reports whether p is due a contribution today. A plan
// that never contributed is due once its start date (if any) has arrived;
// afterwards it is due once per calendar month.
func ShouldContribute(p *Plan, today domain.Date) bool {
	if p.LastInvestmentDate.IsZero() {
		return p.StartDate.IsZero() || !p.StartDate.After(today)
	}
	return !p.LastInvestmentDate.SameMonth(today)
}

// UnitsFor is the number of units amount buys at nav, to four decimal places.
func UnitsFor(amount, nav decimal.Decimal) decimal.Decimal {
	return domain.DivHalfUp(amount, nav, domain.UnitScale)
}
