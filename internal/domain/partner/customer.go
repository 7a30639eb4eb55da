// Package partner holds customer entities and their repository contracts.
package partner

import (
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Customer represents a dealership customer. Contact details are validated at
// the operation boundary; the entity only enforces structural invariants.
type Customer struct {
	shared.TenantEntity
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// NewCustomer creates a customer in the given dealership
func NewCustomer(dealershipID uuid.UUID, firstName, lastName, email, phone string) (*Customer, error) {
	if dealershipID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEALERSHIP", "Dealership ID cannot be empty")
	}
	if firstName == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer first name cannot be empty")
	}
	if lastName == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer last name cannot be empty")
	}

	return &Customer{
		TenantEntity: shared.NewTenantEntity(dealershipID),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		Phone:        phone,
	}, nil
}

// FullName returns the customer's display name
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
