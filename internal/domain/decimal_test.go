package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, "2.35", RoundHalfUp(decimal.RequireFromString("2.345"), 2).String())
	assert.Equal(t, "-2.35", RoundHalfUp(decimal.RequireFromString("-2.345"), 2).String())
	assert.Equal(t, "2.34", RoundHalfUp(decimal.RequireFromString("2.3449"), 2).String())
}

func TestDivHalfUp(t *testing.T) {
	got := DivHalfUp(decimal.NewFromInt(5000), decimal.RequireFromString("45.6789"), UnitScale)
	assert.Equal(t, "109.4597", got.String())
}

func TestRoundSignificant(t *testing.T) {
	assert.Equal(t, "1.126825030", RoundSignificant(decimal.RequireFromString("1.126825030131969720661201"), 10).StringFixed(9))
	assert.Equal(t, "123460", RoundSignificant(decimal.NewFromInt(123456), 5).String())
	assert.True(t, RoundSignificant(decimal.Zero, 10).IsZero())
}

func TestPowSignificant(t *testing.T) {
	got := PowSignificant(decimal.RequireFromString("1.01"), 12, PowDigits)
	assert.True(t, got.Equal(decimal.RequireFromString("1.126825030")), got.String())

	assert.True(t, PowSignificant(decimal.RequireFromString("1.5"), 1, PowDigits).Equal(decimal.RequireFromString("1.5")))
	assert.True(t, PowSignificant(decimal.RequireFromString("2"), 10, PowDigits).Equal(decimal.NewFromInt(1024)))
	assert.True(t, PowSignificant(decimal.RequireFromString("7"), 0, PowDigits).Equal(decimal.NewFromInt(1)))
}

func TestProviderError_Unwraps(t *testing.T) {
	err := fmt.Errorf("attempt 1: %w", NewProviderError("yahoo", 429, ErrRateLimited))

	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "status 429")

	var pe *ProviderError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "yahoo", pe.Provider)

	assert.False(t, IsRetryable(NewProviderError("twelvedata", 0, ErrConfiguration)))
}

func TestParseEnums(t *testing.T) {
	k, err := ParseInstrumentKind("mutual_fund")
	assert.NoError(t, err)
	assert.Equal(t, KindMutualFund, k)

	_, err = ParseInstrumentKind("crypto")
	assert.ErrorIs(t, err, ErrMalformedData)

	c, err := ParseCompounding("")
	assert.NoError(t, err)
	assert.Equal(t, CompoundMonthly, c)

	it, err := ParseInterestType("compound")
	assert.NoError(t, err)
	assert.Equal(t, InterestCompound, it)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Classify(nil))
	assert.Equal(t, OutcomeRateLimited, Classify(NewProviderError("yahoo", 429, ErrRateLimited)))
	assert.Equal(t, OutcomeTransient, Classify(fmt.Errorf("x: %w", ErrTransientProvider)))
	assert.Equal(t, OutcomeConfiguration, Classify(ErrConfiguration))
	assert.Equal(t, OutcomeMalformed, Classify(ErrMalformedData))
	assert.Equal(t, OutcomeUnavailable, Classify(ErrDataUnavailable))
	assert.Equal(t, OutcomeCancelled, Classify(context.Canceled))
	assert.Equal(t, OutcomeError, Classify(errors.New("disk full")))
}
