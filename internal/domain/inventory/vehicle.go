// Package inventory holds the vehicle entity and its status state machine.
package inventory

import (
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleStatus represents the sales state of a vehicle
type VehicleStatus string

const (
	VehicleStatusAvailable VehicleStatus = "available"
	VehicleStatusPending   VehicleStatus = "pending"
	VehicleStatusSold      VehicleStatus = "sold"
	VehicleStatusInTransit VehicleStatus = "in_transit"
)

// IsValid checks if the status is a valid VehicleStatus
func (s VehicleStatus) IsValid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusPending, VehicleStatusSold, VehicleStatusInTransit:
		return true
	}
	return false
}

// String returns the string representation of VehicleStatus
func (s VehicleStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Desking only drives available → pending; the sold and in_transit edges
// belong to inventory collaborators.
func (s VehicleStatus) CanTransitionTo(target VehicleStatus) bool {
	switch s {
	case VehicleStatusAvailable:
		return target == VehicleStatusPending || target == VehicleStatusSold || target == VehicleStatusInTransit
	case VehicleStatusPending:
		return target == VehicleStatusSold || target == VehicleStatusAvailable
	case VehicleStatusInTransit:
		return target == VehicleStatusAvailable
	case VehicleStatusSold:
		return false
	}
	return false
}

// IsAttachable reports whether a deal may claim the vehicle. A pending
// vehicle is already held by another deal, so only available qualifies.
func (s VehicleStatus) IsAttachable() bool {
	return s == VehicleStatusAvailable
}

// Vehicle represents a unit of dealership stock
type Vehicle struct {
	shared.TenantEntity
	VIN         string
	StockNumber *string
	Make        string
	Model       string
	Year        int
	Price       decimal.Decimal
	Status      VehicleStatus
}

// NewVehicle creates an available vehicle in the given dealership
func NewVehicle(dealershipID uuid.UUID, vin, mk, model string, year int, price decimal.Decimal) (*Vehicle, error) {
	if dealershipID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEALERSHIP", "Dealership ID cannot be empty")
	}
	if vin == "" {
		return nil, shared.NewDomainError("INVALID_VIN", "VIN cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Vehicle price cannot be negative")
	}

	return &Vehicle{
		TenantEntity: shared.NewTenantEntity(dealershipID),
		VIN:          vin,
		Make:         mk,
		Model:        model,
		Year:         year,
		Price:        price,
		Status:       VehicleStatusAvailable,
	}, nil
}

// MarkPending transitions the vehicle to pending when a deal attaches it.
// Callers must hold the row lock for the remainder of their transaction. Of
// two concurrent deals over the same vehicle, the second observes pending
// under the lock and fails here.
func (v *Vehicle) MarkPending() error {
	if !v.Status.IsAttachable() {
		return shared.ErrVehicleNotAvailable
	}
	v.Status = VehicleStatusPending
	return nil
}

// AssignStockNumber sets the stock number exactly once
func (v *Vehicle) AssignStockNumber(number string) error {
	if v.StockNumber != nil {
		return shared.NewDomainError("INVALID_STATE", "Stock number already assigned")
	}
	v.StockNumber = &number
	return nil
}
