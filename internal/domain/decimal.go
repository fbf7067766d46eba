package domain

import "github.com/shopspring/decimal"

// Scale constants used by the valuation rules.
const (
	MoneyScale = 2  // currency amounts
	UnitScale  = 4  // plan units purchased per contribution
	RateScale  = 10 // intermediate interest-rate divisions
	PowDigits  = 10 // significant digits kept by compounding powers
)

var (
	// Hundred converts percentages.
	Hundred = decimal.NewFromInt(100)
	// Twelve is months per year.
	Twelve = decimal.NewFromInt(12)
)

// RoundHalfUp rounds d to places fractional digits, ties away from zero.
func RoundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// DivHalfUp divides a by b and rounds the quotient to places digits, ties away from zero.
func DivHalfUp(a, b decimal.Decimal, places int32) decimal.Decimal {
	return a.DivRound(b, places)
}

// RoundSignificant rounds d to the given number of significant digits, ties away from zero.
func RoundSignificant(d decimal.Decimal, digits int) decimal.Decimal {
	if d.IsZero() || digits <= 0 {
		return d
	}
	intDigits := d.NumDigits() + int(d.Exponent())
	return d.Round(int32(digits - intDigits))
}

// PowSignificant raises x to a non-negative integer power by left-to-right
// binary exponentiation, rounding every product to digits+len(n)+1
// significant digits and the result to digits.
func PowSignificant(x decimal.Decimal, n int, digits int) decimal.Decimal {
	if n <= 0 {
		return decimal.NewFromInt(1)
	}
	work := digits + len(decimal.NewFromInt(int64(n)).String()) + 1

	acc := decimal.NewFromInt(1)
	top := 1
	for top<<1 <= n {
		top <<= 1
	}
	for bit := top; bit > 0; bit >>= 1 {
		acc = RoundSignificant(acc.Mul(acc), work)
		if n&bit != 0 {
			acc = RoundSignificant(acc.Mul(x), work)
		}
	}
	return RoundSignificant(acc, digits)
}
