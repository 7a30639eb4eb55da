package desking

import (
	"context"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DealRepository provides access to deals and their scenarios.
//
// LockByID takes a SELECT ... FOR UPDATE row lock on the deal and must be
// called with the repository bound to an open transaction.
type DealRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Deal, error)
	FindByIDForDealership(ctx context.Context, dealershipID, id uuid.UUID) (*Deal, error)
	FindAllForDealership(ctx context.Context, dealershipID uuid.UUID, filter shared.Filter) ([]Deal, error)
	CountForDealership(ctx context.Context, dealershipID uuid.UUID, filter shared.Filter) (int64, error)
	LockByID(ctx context.Context, id uuid.UUID) (*Deal, error)
	Save(ctx context.Context, deal *Deal) error
	SaveScenario(ctx context.Context, scenario *DealScenario) error
	FindScenarios(ctx context.Context, dealID uuid.UUID) ([]DealScenario, error)
}
