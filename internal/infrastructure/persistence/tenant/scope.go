// Package tenant provides dealership-level database scoping for GORM.
//
// Every tenant-owned table carries a dealership_id column. Repositories apply
// the scope explicitly on their ForDealership methods:
//
//	db.Scopes(tenant.DealershipScope(dealershipID)).Find(&deals)
//
// An opt-in callback layer can additionally enforce the filter on every query
// whose context carries a dealership ID; see EnableAutoDealershipFilter.
package tenant

import (
	"context"
	"errors"

	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDealershipRequired is returned when a dealership ID is required but not
// found in context.
var ErrDealershipRequired = errors.New("dealership_id is required but not found in context")

// ErrInvalidDealershipID is returned when the dealership ID in context is not
// a valid UUID.
var ErrInvalidDealershipID = errors.New("invalid dealership_id format")

// DealershipScope applies dealership filtering to GORM queries.
func DealershipScope(dealershipID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("dealership_id = ?", dealershipID)
	}
}

// FromContext extracts and validates the dealership ID placed in context by
// the tenant middleware.
func FromContext(ctx context.Context) (uuid.UUID, error) {
	raw := logger.GetDealershipID(ctx)
	if raw == "" {
		return uuid.Nil, ErrDealershipRequired
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidDealershipID
	}
	return id, nil
}

// ScopedDB wraps a gorm handle and resolves the dealership scope from context
// on each use.
type ScopedDB struct {
	db       *gorm.DB
	required bool
}

// NewScopedDB creates a ScopedDB that requires a dealership in context.
func NewScopedDB(db *gorm.DB) *ScopedDB {
	return &ScopedDB{db: db, required: true}
}

// DB returns the underlying gorm handle without any dealership scoping.
// Callers bypass tenant isolation; reserved for system-level operations.
func (s *ScopedDB) DB() *gorm.DB {
	return s.db
}

// WithContext returns a gorm session filtered to the dealership in ctx. When
// no dealership is present and the scope is required, the returned session
// errors on execution rather than leaking cross-tenant rows.
func (s *ScopedDB) WithContext(ctx context.Context) *gorm.DB {
	id, err := FromContext(ctx)
	if err != nil {
		db := s.db.WithContext(ctx)
		if s.required || errors.Is(err, ErrInvalidDealershipID) {
			_ = db.AddError(err)
		}
		return db
	}
	return s.db.WithContext(ctx).Scopes(DealershipScope(id))
}

// ForDealership returns a gorm session filtered to an explicit dealership.
func (s *ScopedDB) ForDealership(ctx context.Context, dealershipID uuid.UUID) *gorm.DB {
	if dealershipID == uuid.Nil {
		db := s.db.WithContext(ctx)
		_ = db.AddError(ErrDealershipRequired)
		return db
	}
	return s.db.WithContext(ctx).Scopes(DealershipScope(dealershipID))
}
