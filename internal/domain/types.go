package domain

import (
	"fmt"
	"strings"
)

// InstrumentKind classifies an investment position.
type InstrumentKind string

const (
	KindStock      InstrumentKind = "STOCK"
	KindMutualFund InstrumentKind = "MUTUAL_FUND"
	KindETF        InstrumentKind = "ETF"
	KindBond       InstrumentKind = "BOND"
	KindOther      InstrumentKind = "OTHER"
)

// ParseInstrumentKind normalizes s into a known kind.
func ParseInstrumentKind(s string) (InstrumentKind, error) {
	switch k := InstrumentKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindStock, KindMutualFund, KindETF, KindBond, KindOther:
		return k, nil
	case "":
		return KindStock, nil
	default:
		return "", fmt.Errorf("unknown instrument kind %q: %w", s, ErrMalformedData)
	}
}

// InterestType is the interest regime of a loan.
type InterestType string

const (
	InterestSimple   InterestType = "SIMPLE"
	InterestCompound InterestType = "COMPOUND"
)

// ParseInterestType normalizes s into a known regime.
func ParseInterestType(s string) (InterestType, error) {
	switch t := InterestType(strings.ToUpper(strings.TrimSpace(s))); t {
	case InterestSimple, InterestCompound:
		return t, nil
	default:
		return "", fmt.Errorf("unknown interest type %q: %w", s, ErrMalformedData)
	}
}

// Compounding is how often a compound loan capitalizes interest.
type Compounding string

const (
	CompoundMonthly   Compounding = "MONTHLY"
	CompoundQuarterly Compounding = "QUARTERLY"
	CompoundYearly    Compounding = "YEARLY"
)

// ParseCompounding normalizes s into a known compounding period.
// An empty string means monthly.
func ParseCompounding(s string) (Compounding, error) {
	switch c := Compounding(strings.ToUpper(strings.TrimSpace(s))); c {
	case CompoundMonthly, CompoundQuarterly, CompoundYearly:
		return c, nil
	case "":
		return CompoundMonthly, nil
	default:
		return "", fmt.Errorf("unknown compounding %q: %w", s, ErrMalformedData)
	}
}
