package desking

import (
	"context"

	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/desking"
	"github.com/dealerdesk/backend/internal/domain/identity"
	"github.com/dealerdesk/backend/internal/domain/inventory"
	"github.com/dealerdesk/backend/internal/domain/partner"
	"github.com/dealerdesk/backend/internal/domain/shared"
)

// TxScope runs a function inside a database transaction with every
// repository bound to it. Serializable adds automatic retry on
// serialization failures and deadlocks, so the function must be safe to
// re-invoke from scratch.
type TxScope interface {
	Serializable(ctx context.Context, fn func(repos TxRepositories) error) error
	ReadCommitted(ctx context.Context, fn func(repos TxRepositories) error) error
}

// TxRepositories exposes the repositories bound to the open transaction,
// plus savepoint control for partial rollback within it.
type TxRepositories interface {
	Dealerships() dealership.Repository
	Deals() desking.DealRepository
	Vehicles() inventory.VehicleRepository
	Customers() partner.CustomerRepository
	Users() identity.UserRepository
	Sequences() dealership.SequenceRepository
	Audit() shared.AuditRepository

	Savepoint(name string) error
	RollbackToSavepoint(name string) error
}
