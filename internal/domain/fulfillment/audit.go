package fulfillment

import (
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditAction identifies the intercepted destructive operation
type AuditAction string

const (
	AuditActionDelete  AuditAction = "delete"
	AuditActionRestore AuditAction = "restore"
)

// OrderAuditEntry records a destructive operation on an order. Deletes
// are soft, so the entry plus the deleted_at marker form the audit trail.
type OrderAuditEntry struct {
	shared.BaseEntity
	OrderID     uuid.UUID
	OrderNumber string
	Action      AuditAction
	ActorID     uuid.UUID
	ActorRole   Role
	Reason      string
}

// NewOrderAuditEntry creates an audit entry for an order operation
func NewOrderAuditEntry(order *Order, action AuditAction, actorID uuid.UUID, actorRole Role, reason string) *OrderAuditEntry {
	return &OrderAuditEntry{
		BaseEntity:  shared.NewBaseEntity(),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Action:      action,
		ActorID:     actorID,
		ActorRole:   actorRole,
		Reason:      reason,
	}
}
