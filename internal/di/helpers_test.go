package di

import (
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

func mustDecimal(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustDate(s string) domain.Date {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
