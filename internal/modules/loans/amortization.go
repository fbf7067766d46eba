package loans

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

var (
	one   = decimal.NewFromInt(1)
	four  = decimal.NewFromInt(4)
	three = decimal.NewFromInt(3)
)

// ComputeEMI returns the fixed monthly installment
//
//	EMI = P·r·(1+r)^n / ((1+r)^n − 1)
//
// where r is the annual percentage rate over 1200, each division kept at
// ten decimal places, and (1+r)^n is rounded to ten significant digits.
func ComputeEMI(principal, annualRate decimal.Decimal, tenureMonths int) (decimal.Decimal, error) {
	if tenureMonths <= 0 {
		return decimal.Zero, fmt.Errorf("%w: tenure must be positive, got %d", domain.ErrMalformedData, tenureMonths)
	}

	annual := domain.DivHalfUp(annualRate, domain.Hundred, domain.RateScale)
	r := domain.DivHalfUp(annual, domain.Twelve, domain.RateScale)

	pow := domain.PowSignificant(one.Add(r), tenureMonths, domain.PowDigits)
	denominator := pow.Sub(one)
	if denominator.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: installment undefined for rate %s", domain.ErrMalformedData, annualRate)
	}

	numerator := principal.Mul(r).Mul(pow)
	return domain.DivHalfUp(numerator, denominator, domain.MoneyScale), nil
}

// MonthlyRate returns the rate applied to the balance each month.
//
// Quarterly and yearly compounding raise the period factor to the power 1,
// so the period factor is used unchanged.
func MonthlyRate(l *Loan) decimal.Decimal {
	annual := domain.DivHalfUp(l.InterestRate, domain.Hundred, domain.RateScale)

	if l.InterestType != domain.InterestCompound {
		return domain.DivHalfUp(annual, domain.Twelve, domain.RateScale)
	}

	switch l.Compounding {
	case domain.CompoundQuarterly:
		quarterly := domain.DivHalfUp(annual, four, domain.RateScale)
		effective := domain.PowSignificant(one.Add(quarterly), 1, domain.PowDigits).Sub(one)
		return domain.DivHalfUp(effective, three, domain.RateScale)
	case domain.CompoundYearly:
		effective := domain.PowSignificant(one.Add(annual), 1, domain.PowDigits).Sub(one)
		return domain.DivHalfUp(effective, domain.Twelve, domain.RateScale)
	default:
		return domain.DivHalfUp(annual, domain.Twelve, domain.RateScale)
	}
}

// Reasons a catch-up leaves a loan unchanged.
const (
	SkipRefreshedToday = "already refreshed today"
	SkipNoAnchor       = "no temporal anchor"
	SkipNoElapsed      = "no elapsed months"
)

// CatchUp replays every installment due between the loan's last refresh
// (or its start) and today. It returns the updated copy and whether anything
// changed; when nothing changed, reason says why.
//
// The balance stays within [0, principal]. The replay stops at the first
// installment that would leave that range, which happens when the loan is
// repaid or when its EMI no longer covers the monthly interest.
func CatchUp(l Loan, today domain.Date) (Loan, bool, string) {
	if !l.LastUpdated.IsZero() && l.LastUpdated.Equal(today) {
		return l, false, SkipRefreshedToday
	}

	ref := l.LastUpdated
	if ref.IsZero() {
		ref = l.StartDate
	}
	if ref.IsZero() {
		return l, false, SkipNoAnchor
	}

	months := ref.MonthsUntil(today)
	if months <= 0 {
		return l, false, SkipNoElapsed
	}

	rate := MonthlyRate(&l)
	balance := l.CurrentBalance
	for i := 0; i < months; i++ {
		interest := domain.RoundHalfUp(balance.Mul(rate), domain.MoneyScale)
		balance = balance.Sub(l.EMI.Sub(interest))
		if balance.IsNegative() {
			balance = decimal.Zero
			break
		}
		if balance.GreaterThan(l.Principal) {
			balance = l.Principal
			break
		}
	}

	l.CurrentBalance = balance
	l.LastUpdated = today
	return l, true, ""
}
