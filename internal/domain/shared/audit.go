package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditAction identifies the kind of mutation recorded in the audit log
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
)

// Audited entity types
const (
	AuditEntityDeal     = "deal"
	AuditEntityVehicle  = "vehicle"
	AuditEntityCustomer = "customer"
	AuditEntityUser     = "user"
)

// AuditLogEntry is an append-only record of a mutation. Entries are written
// inside the same transaction as the mutation they describe and are never
// updated or deleted by this layer.
type AuditLogEntry struct {
	ID           uuid.UUID
	DealershipID uuid.UUID
	ActorID      *uuid.UUID
	Action       AuditAction
	EntityType   string
	EntityID     uuid.UUID
	Metadata     map[string]string `gorm:"serializer:json"`
	CreatedAt    time.Time
}

// TableName maps the entry to the audit_log table
func (AuditLogEntry) TableName() string {
	return "audit_log"
}

// NewAuditLogEntry creates an audit entry for a mutation
func NewAuditLogEntry(dealershipID uuid.UUID, actorID *uuid.UUID, action AuditAction, entityType string, entityID uuid.UUID, metadata map[string]string) *AuditLogEntry {
	return &AuditLogEntry{
		ID:           uuid.New(),
		DealershipID: dealershipID,
		ActorID:      actorID,
		Action:       action,
		EntityType:   entityType,
		EntityID:     entityID,
		Metadata:     metadata,
		CreatedAt:    time.Now(),
	}
}

// AuditRepository persists audit log entries
type AuditRepository interface {
	Append(ctx context.Context, entry *AuditLogEntry) error
	FindForEntity(ctx context.Context, dealershipID uuid.UUID, entityType string, entityID uuid.UUID) ([]AuditLogEntry, error)
}
