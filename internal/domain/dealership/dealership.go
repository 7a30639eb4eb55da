// Package dealership holds the tenant aggregate and the per-dealership
// counters used to mint deal and stock numbers.
package dealership

import (
	"github.com/dealerdesk/backend/internal/domain/shared"
)

// Status represents the operational state of a dealership
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusSuspended:
		return true
	}
	return false
}

// Dealership is the tenant boundary. Every customer, vehicle, user and deal
// row belongs to exactly one dealership.
type Dealership struct {
	shared.BaseEntity
	Name   string
	Code   string
	Status Status
}

// NewDealership creates an active dealership
func NewDealership(name, code string) (*Dealership, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Dealership name cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Dealership code cannot be empty")
	}
	return &Dealership{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Code:       code,
		Status:     StatusActive,
	}, nil
}

// IsActive reports whether the dealership can accept new work
func (d *Dealership) IsActive() bool {
	return d.Status == StatusActive
}
