// Package investments tracks market positions and refreshes their prices
// through the price resolution chain.
package investments

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

// Instrument is one investment position.
type Instrument struct {
	ID            int64                 `json:"id"`
	Name          string                `json:"name"`
	Symbol        string                `json:"symbol"`
	Kind          domain.InstrumentKind `json:"type"`
	Quantity      decimal.Decimal       `json:"quantity"`
	PurchasePrice decimal.Decimal       `json:"purchasePrice"`
	// CurrentPrice is zero until the first successful resolution.
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	PurchaseDate domain.Date     `json:"purchaseDate"`
	LastUpdated  domain.Date     `json:"lastUpdated"`
}

// Validate checks the user-supplied fields and normalizes symbol and kind.
func (i *Instrument) Validate() error {
	var problems []string

	i.Symbol = strings.ToUpper(strings.TrimSpace(i.Symbol))
	if strings.TrimSpace(i.Name) == "" {
		problems = append(problems, "name is required")
	}
	if i.Symbol == "" {
		problems = append(problems, "symbol is required")
	}
	if !i.Quantity.IsPositive() {
		problems = append(problems, "quantity must be positive")
	}
	if !i.PurchasePrice.IsPositive() {
		problems = append(problems, "purchase price must be positive")
	}
	if i.CurrentPrice.IsNegative() {
		problems = append(problems, "current price cannot be negative")
	}

	kind, err := domain.ParseInstrumentKind(string(i.Kind))
	if err != nil {
		problems = append(problems, err.Error())
	}
	i.Kind = kind

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// CurrentValue is quantity times current price.
func (i *Instrument) CurrentValue() decimal.Decimal {
	return i.Quantity.Mul(i.CurrentPrice)
}

// CostBasis is quantity times purchase price.
func (i *Instrument) CostBasis() decimal.Decimal {
	return i.Quantity.Mul(i.PurchasePrice)
}

// ProfitLoss is current value less cost basis.
func (i *Instrument) ProfitLoss() decimal.Decimal {
	return i.CurrentValue().Sub(i.CostBasis())
}

// ReturnPercent is profit over cost basis in percent, to two places.
// It is zero when the cost basis is zero.
func (i *Instrument) ReturnPercent() decimal.Decimal {
	cost := i.CostBasis()
	if cost.IsZero() {
		return decimal.Zero
	}
	return domain.DivHalfUp(i.ProfitLoss().Mul(domain.Hundred), cost, domain.MoneyScale)
}

// View is an instrument with its derived figures, as served over the API.
type View struct {
	Instrument
	CurrentValue  decimal.Decimal `json:"currentValue"`
	ProfitLoss    decimal.Decimal `json:"profitLoss"`
	ReturnPercent decimal.Decimal `json:"returnPercentage"`
}

// NewView computes the derived figures of i.
func NewView(i Instrument) View {
	return View{
		Instrument:    i,
		CurrentValue:  i.CurrentValue(),
		ProfitLoss:    i.ProfitLoss(),
		ReturnPercent: i.ReturnPercent(),
	}
}

// Summary aggregates all positions.
type Summary struct {
	TotalValue      decimal.Decimal `json:"totalValue"`
	TotalProfitLoss decimal.Decimal `json:"totalProfitLoss"`
}
