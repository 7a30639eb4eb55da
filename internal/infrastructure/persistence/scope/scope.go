// Package scope binds the transaction manager and the gorm repositories to
// the per-service transaction ports of the application layer.
package scope

import (
	"context"
	"strings"

	appdesking "github.com/dealerdesk/backend/internal/application/desking"
	appidentity "github.com/dealerdesk/backend/internal/application/identity"
	appinventory "github.com/dealerdesk/backend/internal/application/inventory"
	apppartner "github.com/dealerdesk/backend/internal/application/partner"
	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/desking"
	"github.com/dealerdesk/backend/internal/domain/identity"
	"github.com/dealerdesk/backend/internal/domain/inventory"
	"github.com/dealerdesk/backend/internal/domain/partner"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/infrastructure/persistence"
)

// txRepositories binds every repository to one open managed transaction. It
// satisfies the per-service repository interfaces of the application layer.
type txRepositories struct {
	tx *persistence.Tx
}

func (r *txRepositories) Dealerships() dealership.Repository {
	return persistence.NewGormDealershipRepository(r.tx.DB())
}

func (r *txRepositories) Deals() desking.DealRepository {
	return persistence.NewGormDealRepository(r.tx.DB())
}

func (r *txRepositories) Vehicles() inventory.VehicleRepository {
	return persistence.NewGormVehicleRepository(r.tx.DB())
}

func (r *txRepositories) Customers() partner.CustomerRepository {
	return persistence.NewGormCustomerRepository(r.tx.DB())
}

func (r *txRepositories) Users() identity.UserRepository {
	return persistence.NewGormUserRepository(r.tx.DB())
}

func (r *txRepositories) Sequences() dealership.SequenceRepository {
	return persistence.NewGormSequenceRepository(r.tx.DB())
}

func (r *txRepositories) Audit() shared.AuditRepository {
	return persistence.NewGormAuditRepository(r.tx.DB())
}

func (r *txRepositories) Savepoint(name string) error {
	return r.tx.Savepoint(name)
}

func (r *txRepositories) RollbackToSavepoint(name string) error {
	return r.tx.RollbackToSavepoint(name)
}

// DeskingTxScope runs deal operations inside managed transactions with
// conflict retry.
type DeskingTxScope struct {
	manager *persistence.TxManager
}

// NewDeskingTxScope creates a transaction scope for deal operations.
func NewDeskingTxScope(manager *persistence.TxManager) *DeskingTxScope {
	return &DeskingTxScope{manager: manager}
}

// Serializable implements the desking transaction scope at full isolation.
func (s *DeskingTxScope) Serializable(ctx context.Context, fn func(appdesking.TxRepositories) error) error {
	return translateConstraintErr(s.manager.RunSerializable(ctx, func(tx *persistence.Tx) error {
		return fn(&txRepositories{tx: tx})
	}))
}

// ReadCommitted implements the desking transaction scope at the default
// isolation level.
func (s *DeskingTxScope) ReadCommitted(ctx context.Context, fn func(appdesking.TxRepositories) error) error {
	return translateConstraintErr(s.manager.Run(ctx, func(tx *persistence.Tx) error {
		return fn(&txRepositories{tx: tx})
	}))
}

// InventoryTxScope runs vehicle stock operations inside managed transactions.
type InventoryTxScope struct {
	manager *persistence.TxManager
}

// NewInventoryTxScope creates a transaction scope for stock operations.
func NewInventoryTxScope(manager *persistence.TxManager) *InventoryTxScope {
	return &InventoryTxScope{manager: manager}
}

// Serializable implements the inventory transaction scope.
func (s *InventoryTxScope) Serializable(ctx context.Context, fn func(appinventory.TxRepositories) error) error {
	return translateConstraintErr(s.manager.RunSerializable(ctx, func(tx *persistence.Tx) error {
		return fn(&txRepositories{tx: tx})
	}))
}

// IdentityTxScope runs user registration inside managed transactions.
type IdentityTxScope struct {
	manager *persistence.TxManager
}

// NewIdentityTxScope creates a transaction scope for user operations.
func NewIdentityTxScope(manager *persistence.TxManager) *IdentityTxScope {
	return &IdentityTxScope{manager: manager}
}

// Serializable implements the identity transaction scope.
func (s *IdentityTxScope) Serializable(ctx context.Context, fn func(appidentity.TxRepositories) error) error {
	return translateConstraintErr(s.manager.RunSerializable(ctx, func(tx *persistence.Tx) error {
		return fn(&txRepositories{tx: tx})
	}))
}

// PartnerTxScope runs customer operations inside managed transactions.
type PartnerTxScope struct {
	manager *persistence.TxManager
}

// NewPartnerTxScope creates a transaction scope for customer operations.
func NewPartnerTxScope(manager *persistence.TxManager) *PartnerTxScope {
	return &PartnerTxScope{manager: manager}
}

// ReadCommitted implements the partner transaction scope. Customer writes
// take no row locks and claim no counters, so the default isolation is
// enough.
func (s *PartnerTxScope) ReadCommitted(ctx context.Context, fn func(apppartner.TxRepositories) error) error {
	return translateConstraintErr(s.manager.Run(ctx, func(tx *persistence.Tx) error {
		return fn(&txRepositories{tx: tx})
	}))
}

// translateConstraintErr maps unique violations raised at the database onto
// domain errors. The constraints are the backstop behind the in-transaction
// checks: a concurrent writer can slip between check and insert, and the
// violation it causes must read the same as the check failing.
func translateConstraintErr(err error) error {
	if err == nil || !persistence.IsUniqueViolation(err) {
		return err
	}
	name := persistence.ConstraintName(err)
	switch {
	case strings.Contains(name, "deal_number"):
		return shared.ErrDuplicateDealNumber
	case strings.Contains(name, "stock_number"), strings.Contains(name, "vin"):
		return shared.ErrAlreadyExists
	case strings.Contains(name, "username"), strings.Contains(name, "email"):
		return shared.ErrAlreadyExists
	}
	return err
}

var (
	_ appdesking.TxScope   = (*DeskingTxScope)(nil)
	_ appinventory.TxScope = (*InventoryTxScope)(nil)
	_ appidentity.TxScope  = (*IdentityTxScope)(nil)
	_ apppartner.TxScope   = (*PartnerTxScope)(nil)
)
