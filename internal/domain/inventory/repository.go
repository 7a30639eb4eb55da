package inventory

import (
	"context"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// VehicleRepository provides access to vehicles.
//
// LockByID must be called with the repository bound to an open transaction:
// it takes a SELECT ... FOR UPDATE row lock that is held until the
// transaction commits or rolls back. FindByID ignores the tenant boundary so
// callers can distinguish TENANT_VIOLATION from NOT_FOUND.
type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	FindByIDForDealership(ctx context.Context, dealershipID, id uuid.UUID) (*Vehicle, error)
	FindAllForDealership(ctx context.Context, dealershipID uuid.UUID, filter shared.Filter) ([]Vehicle, error)
	LockByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	Save(ctx context.Context, vehicle *Vehicle) error
}
