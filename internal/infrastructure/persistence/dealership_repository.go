package persistence

import (
	"context"
	"errors"

	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDealershipRepository implements dealership.Repository using GORM
type GormDealershipRepository struct {
	db *gorm.DB
}

// NewGormDealershipRepository creates a new GormDealershipRepository
func NewGormDealershipRepository(db *gorm.DB) *GormDealershipRepository {
	return &GormDealershipRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormDealershipRepository) WithTx(tx *gorm.DB) *GormDealershipRepository {
	return &GormDealershipRepository{db: tx}
}

// FindByID finds a dealership by its ID
func (r *GormDealershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*dealership.Dealership, error) {
	var d dealership.Dealership
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Save persists a dealership
func (r *GormDealershipRepository) Save(ctx context.Context, d *dealership.Dealership) error {
	return r.db.WithContext(ctx).Save(d).Error
}
