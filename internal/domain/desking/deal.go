// Package desking holds the deal aggregate: the working record a salesperson
// builds while structuring a sale, together with its pricing scenarios.
package desking

import (
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DealStatus represents the lifecycle state of a deal
type DealStatus string

const (
	// DealStatusDraft is a numberless "blank desk" deal with no customer yet
	DealStatusDraft DealStatus = "draft"
	DealStatusOpen  DealStatus = "open"
)

// IsValid checks if the status is a valid DealStatus
func (s DealStatus) IsValid() bool {
	switch s {
	case DealStatusDraft, DealStatusOpen:
		return true
	}
	return false
}

// Deal references the dealership, the salesperson working it, and optionally a
// customer and a vehicle. The deal number stays nil until a customer attaches;
// once assigned it is immutable and unique within the dealership.
type Deal struct {
	shared.TenantEntity
	SalespersonID    uuid.UUID
	CustomerID       *uuid.UUID
	VehicleID        *uuid.UUID
	DealNumber       *string
	ActiveScenarioID *uuid.UUID
	Status           DealStatus
}

// NewDeal creates a draft deal for the given dealership and salesperson
func NewDeal(dealershipID, salespersonID uuid.UUID) (*Deal, error) {
	if dealershipID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEALERSHIP", "Dealership ID cannot be empty")
	}
	if salespersonID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SALESPERSON", "Salesperson ID cannot be empty")
	}

	return &Deal{
		TenantEntity:  shared.NewTenantEntity(dealershipID),
		SalespersonID: salespersonID,
		Status:        DealStatusDraft,
	}, nil
}

// AttachCustomer links a customer to the deal and moves it out of draft.
// The caller is responsible for the tenant check and for assigning a deal
// number in the same transaction.
func (d *Deal) AttachCustomer(customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	d.CustomerID = &customerID
	d.Status = DealStatusOpen
	return nil
}

// HasCustomer reports whether the given customer is already on the deal
func (d *Deal) HasCustomer(customerID uuid.UUID) bool {
	return d.CustomerID != nil && *d.CustomerID == customerID
}

// AttachVehicle links a vehicle to the deal
func (d *Deal) AttachVehicle(vehicleID uuid.UUID) error {
	if vehicleID == uuid.Nil {
		return shared.NewDomainError("INVALID_VEHICLE", "Vehicle ID cannot be empty")
	}
	d.VehicleID = &vehicleID
	return nil
}

// AssignNumber sets the deal number exactly once
func (d *Deal) AssignNumber(number string) error {
	if d.DealNumber != nil {
		return shared.NewDomainError("INVALID_STATE", "Deal number already assigned")
	}
	if number == "" {
		return shared.NewDomainError("INVALID_INPUT", "Deal number cannot be empty")
	}
	d.DealNumber = &number
	return nil
}

// SetActiveScenario points the deal at its active scenario
func (d *Deal) SetActiveScenario(scenarioID uuid.UUID) {
	d.ActiveScenarioID = &scenarioID
}
