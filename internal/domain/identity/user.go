// Package identity holds dealership users. Authentication, sessions and MFA
// are external collaborators; this layer only owns the user rows.
package identity

import (
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UserRole identifies what a user does at the dealership
type UserRole string

const (
	RoleSalesperson UserRole = "salesperson"
	RoleManager     UserRole = "manager"
	RoleAdmin       UserRole = "admin"
)

// IsValid checks if the role is a valid UserRole
func (r UserRole) IsValid() bool {
	switch r {
	case RoleSalesperson, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User represents a dealership employee account. Username and email are
// unique per dealership, enforced by pre-checks inside the registration
// transaction with the store's unique constraints as the backstop.
type User struct {
	shared.TenantEntity
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         UserRole
	Active       bool
}

// NewUser creates an active user in the given dealership
func NewUser(dealershipID uuid.UUID, username, email, passwordHash string, role UserRole) (*User, error) {
	if dealershipID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEALERSHIP", "Dealership ID cannot be empty")
	}
	if username == "" {
		return nil, shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if passwordHash == "" {
		return nil, shared.NewDomainError("INVALID_PASSWORD", "Password hash cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown user role")
	}

	return &User{
		TenantEntity: shared.NewTenantEntity(dealershipID),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
	}, nil
}
