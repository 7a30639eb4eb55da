package dealership

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides access to dealerships
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Dealership, error)
	Save(ctx context.Context, d *Dealership) error
}

// SequenceRepository claims values from per-dealership counters.
//
// NextValue must be called with the repository bound to an open transaction:
// it row-locks the sequence (creating it at zero when absent), increments it
// and returns the claimed value. The claim commits or aborts together with
// whatever row consumes the number.
type SequenceRepository interface {
	NextValue(ctx context.Context, dealershipID uuid.UUID, counter CounterType) (int64, error)
}
