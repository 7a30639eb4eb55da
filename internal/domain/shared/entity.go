package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the base interface for all domain entities
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TenantEntity provides common fields for dealership-scoped entities.
// Every row backed by a TenantEntity carries the owning dealership ID;
// reads and writes across that boundary are a TENANT_VIOLATION, never a
// plain not-found.
type TenantEntity struct {
	BaseEntity
	DealershipID uuid.UUID
}

// BelongsTo reports whether the entity is owned by the given dealership
func (e *TenantEntity) BelongsTo(dealershipID uuid.UUID) bool {
	return e.DealershipID == dealershipID
}

// NewTenantEntity creates a new dealership-scoped entity
func NewTenantEntity(dealershipID uuid.UUID) TenantEntity {
	return TenantEntity{
		BaseEntity:   NewBaseEntity(),
		DealershipID: dealershipID,
	}
}
