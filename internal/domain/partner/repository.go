package partner

import (
	"context"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository provides access to customers.
//
// FindByID deliberately ignores the tenant boundary: callers compare the
// loaded dealership ID against their own tenant context so that a cross-tenant
// reference surfaces as TENANT_VIOLATION instead of NOT_FOUND.
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByIDForDealership(ctx context.Context, dealershipID, id uuid.UUID) (*Customer, error)
	FindAllForDealership(ctx context.Context, dealershipID uuid.UUID, filter shared.Filter) ([]Customer, error)
	Save(ctx context.Context, customer *Customer) error
}
