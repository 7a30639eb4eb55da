package partner

import (
	"context"

	"github.com/dealerdesk/backend/internal/domain/partner"
	"github.com/dealerdesk/backend/internal/domain/shared"
)

// TxScope runs a function inside a database transaction with the partner
// repositories bound to it. Customer writes take no locks beyond their own
// rows, so read-committed isolation is sufficient.
type TxScope interface {
	ReadCommitted(ctx context.Context, fn func(repos TxRepositories) error) error
}

// TxRepositories exposes the repositories bound to the open transaction.
type TxRepositories interface {
	Customers() partner.CustomerRepository
	Audit() shared.AuditRepository
}
