package desking

import (
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DealScenario is one priced structure of a deal. Every deal carries at least
// one scenario, created atomically with the deal itself and marked default.
type DealScenario struct {
	shared.TenantEntity
	DealID       uuid.UUID
	Name         string
	IsDefault    bool
	VehiclePrice decimal.Decimal
	TaxTotal     decimal.Decimal
	TotalPrice   decimal.Decimal
}

// NewDefaultScenario creates the default scenario for a freshly created deal
func NewDefaultScenario(deal *Deal, vehiclePrice, taxTotal decimal.Decimal) (*DealScenario, error) {
	if deal == nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal cannot be nil")
	}
	if vehiclePrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Vehicle price cannot be negative")
	}
	if taxTotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TAX", "Tax total cannot be negative")
	}

	return &DealScenario{
		TenantEntity: shared.NewTenantEntity(deal.DealershipID),
		DealID:       deal.ID,
		Name:         "default",
		IsDefault:    true,
		VehiclePrice: vehiclePrice,
		TaxTotal:     taxTotal,
		TotalPrice:   vehiclePrice.Add(taxTotal),
	}, nil
}
