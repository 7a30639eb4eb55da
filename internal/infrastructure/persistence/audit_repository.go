package persistence

import (
	"context"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository implements shared.AuditRepository using GORM. Audit
// entries are written inside the same transaction as the change they record,
// so a rolled-back operation leaves no trace.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormAuditRepository) WithTx(tx *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: tx}
}

// Append writes an audit log entry
func (r *GormAuditRepository) Append(ctx context.Context, entry *shared.AuditLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindForEntity returns the audit trail for one entity, oldest first
func (r *GormAuditRepository) FindForEntity(ctx context.Context, dealershipID uuid.UUID, entityType string, entityID uuid.UUID) ([]shared.AuditLogEntry, error) {
	var entries []shared.AuditLogEntry
	if err := r.db.WithContext(ctx).
		Scopes(tenant.DealershipScope(dealershipID)).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
