package desking

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxContext carries the inputs the external tax collaborator needs to price
// a scenario. Jurisdiction resolution and rate formulas live outside this
// repository.
type TaxContext struct {
	DealershipID uuid.UUID
	VehiclePrice decimal.Decimal
}

// TaxCalculator computes the tax amount for a scenario. Implementations are
// expected to behave as pure functions: no database access, safe to re-invoke
// when the surrounding transaction retries.
type TaxCalculator interface {
	Calculate(ctx context.Context, tc TaxContext) (decimal.Decimal, error)
}

// ZeroTaxCalculator returns zero tax for every scenario. Used as the fallback
// when no tax collaborator is configured.
type ZeroTaxCalculator struct{}

// Calculate implements TaxCalculator
func (ZeroTaxCalculator) Calculate(ctx context.Context, tc TaxContext) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
