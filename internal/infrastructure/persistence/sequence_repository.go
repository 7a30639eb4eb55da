package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceRepository implements dealership.SequenceRepository using GORM.
//
// NextValue relies on row locks, so the repository must be bound to an open
// transaction via WithTx before use. The claimed value is only visible to
// other transactions once the surrounding transaction commits; an abort rolls
// the increment back, which keeps the counter gap-free.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormSequenceRepository) WithTx(tx *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: tx}
}

// NextValue claims the next counter value for a dealership.
//
// The sequence row is locked with SELECT ... FOR UPDATE for the remainder of
// the transaction, serializing concurrent claimants. A missing row is created
// at zero first, with ON CONFLICT DO NOTHING so two transactions racing on
// the (dealership_id, counter) constraint cannot poison the transaction; the
// loser simply locks the winner's row.
func (r *GormSequenceRepository) NextValue(ctx context.Context, dealershipID uuid.UUID, counter dealership.CounterType) (int64, error) {
	if !counter.IsValid() {
		return 0, shared.NewDomainError("INVALID_COUNTER", "Unknown sequence counter type")
	}

	seq, err := r.lockRow(ctx, dealershipID, counter)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.createRow(ctx, dealershipID, counter); err != nil {
			return 0, err
		}
		seq, err = r.lockRow(ctx, dealershipID, counter)
	}
	if err != nil {
		return 0, err
	}

	seq.Value++
	seq.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(seq).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}

func (r *GormSequenceRepository) lockRow(ctx context.Context, dealershipID uuid.UUID, counter dealership.CounterType) (*dealership.Sequence, error) {
	var seq dealership.Sequence
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("dealership_id = ? AND counter = ?", dealershipID, counter).
		First(&seq).Error
	if err != nil {
		return nil, err
	}
	return &seq, nil
}

func (r *GormSequenceRepository) createRow(ctx context.Context, dealershipID uuid.UUID, counter dealership.CounterType) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dealership.Sequence{
			ID:           uuid.New(),
			DealershipID: dealershipID,
			Counter:      counter,
			Value:        0,
			UpdatedAt:    time.Now(),
		}).Error
}
