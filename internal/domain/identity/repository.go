package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository provides access to users.
//
// FindByID ignores the tenant boundary so callers can raise TENANT_VIOLATION
// instead of NOT_FOUND for cross-dealership references.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDForDealership(ctx context.Context, dealershipID, id uuid.UUID) (*User, error)
	ExistsByUsername(ctx context.Context, dealershipID uuid.UUID, username string) (bool, error)
	ExistsByEmail(ctx context.Context, dealershipID uuid.UUID, email string) (bool, error)
	Save(ctx context.Context, user *User) error
}
