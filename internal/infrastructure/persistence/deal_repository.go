package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/dealerdesk/backend/internal/domain/desking"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDealRepository implements desking.DealRepository using GORM
type GormDealRepository struct {
	db *gorm.DB
}

// NewGormDealRepository creates a new GormDealRepository
func NewGormDealRepository(db *gorm.DB) *GormDealRepository {
	return &GormDealRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormDealRepository) WithTx(tx *gorm.DB) *GormDealRepository {
	return &GormDealRepository{db: tx}
}

// FindByID finds a deal by ID across all dealerships. Callers use this to
// tell a missing deal from a cross-dealership reference.
func (r *GormDealRepository) FindByID(ctx context.Context, id uuid.UUID) (*desking.Deal, error) {
	var d desking.Deal
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindByIDForDealership finds a deal by ID within a dealership
func (r *GormDealRepository) FindByIDForDealership(ctx context.Context, dealershipID, id uuid.UUID) (*desking.Deal, error) {
	var d desking.Deal
	if err := r.db.WithContext(ctx).
		Scopes(tenant.DealershipScope(dealershipID)).
		First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindAllForDealership finds all deals for a dealership
func (r *GormDealRepository) FindAllForDealership(ctx context.Context, dealershipID uuid.UUID, filter shared.Filter) ([]desking.Deal, error) {
	var deals []desking.Deal
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&desking.Deal{}).Scopes(tenant.DealershipScope(dealershipID)),
		filter,
	)
	if err := query.Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

// CountForDealership counts deals for a dealership matching the filter
func (r *GormDealRepository) CountForDealership(ctx context.Context, dealershipID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&desking.Deal{}).Scopes(tenant.DealershipScope(dealershipID))
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// LockByID loads a deal under SELECT ... FOR UPDATE. The repository must be
// bound to an open transaction; the lock holds until it ends.
func (r *GormDealRepository) LockByID(ctx context.Context, id uuid.UUID) (*desking.Deal, error) {
	var d desking.Deal
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Save persists a deal
func (r *GormDealRepository) Save(ctx context.Context, d *desking.Deal) error {
	return r.db.WithContext(ctx).Save(d).Error
}

// SaveScenario persists a deal scenario
func (r *GormDealRepository) SaveScenario(ctx context.Context, s *desking.DealScenario) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// FindScenarios returns all scenarios attached to a deal
func (r *GormDealRepository) FindScenarios(ctx context.Context, dealID uuid.UUID) ([]desking.DealScenario, error) {
	var scenarios []desking.DealScenario
	if err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at ASC").
		Find(&scenarios).Error; err != nil {
		return nil, err
	}
	return scenarios, nil
}

func (r *GormDealRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if salespersonID, ok := filter.Filters["salesperson_id"]; ok {
		query = query.Where("salesperson_id = ?", salespersonID)
	}

	orderBy := ValidateSortField(filter.OrderBy, DealSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}
