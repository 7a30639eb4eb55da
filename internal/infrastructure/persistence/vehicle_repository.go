package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/dealerdesk/backend/internal/domain/inventory"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVehicleRepository implements inventory.VehicleRepository using GORM
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormVehicleRepository) WithTx(tx *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: tx}
}

// FindByID finds a vehicle by ID across all dealerships. Callers use this to
// tell a missing vehicle from a cross-dealership reference.
func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Vehicle, error) {
	var v inventory.Vehicle
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// FindByIDForDealership finds a vehicle by ID within a dealership
func (r *GormVehicleRepository) FindByIDForDealership(ctx context.Context, dealershipID, id uuid.UUID) (*inventory.Vehicle, error) {
	var v inventory.Vehicle
	if err := r.db.WithContext(ctx).
		Scopes(tenant.DealershipScope(dealershipID)).
		First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// FindAllForDealership finds all vehicles for a dealership
func (r *GormVehicleRepository) FindAllForDealership(ctx context.Context, dealershipID uuid.UUID, filter shared.Filter) ([]inventory.Vehicle, error) {
	var vehicles []inventory.Vehicle
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.Vehicle{}).Scopes(tenant.DealershipScope(dealershipID)),
		filter,
	)
	if err := query.Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

// LockByID loads a vehicle under SELECT ... FOR UPDATE. The repository must
// be bound to an open transaction; the lock holds until it ends.
func (r *GormVehicleRepository) LockByID(ctx context.Context, id uuid.UUID) (*inventory.Vehicle, error) {
	var v inventory.Vehicle
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Save persists a vehicle
func (r *GormVehicleRepository) Save(ctx context.Context, v *inventory.Vehicle) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *GormVehicleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"vin ILIKE ? OR make ILIKE ? OR model ILIKE ? OR stock_number ILIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	orderBy := ValidateSortField(filter.OrderBy, VehicleSortFields, "created_at")
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
