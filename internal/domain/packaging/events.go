package packaging

import (
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeVerification = "PackagingVerification"

// Event type constants
const (
	EventTypeItemVerified = "PackagingItemVerified"
	EventTypeOrderPacked  = "PackagingOrderPacked"
)

// ItemVerifiedEvent is raised when a line reaches its required scans
type ItemVerifiedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderItemID uuid.UUID `json:"order_item_id"`
	Manual      bool      `json:"manual"`
}

// NewItemVerifiedEvent creates a new ItemVerifiedEvent
func NewItemVerifiedEvent(v *Verification, manual bool) *ItemVerifiedEvent {
	return &ItemVerifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemVerified, AggregateTypeVerification, v.ID),
		OrderID:         v.OrderID,
		OrderItemID:     v.OrderItemID,
		Manual:          manual,
	}
}

// EventType returns the event type name
func (e *ItemVerifiedEvent) EventType() string {
	return EventTypeItemVerified
}

// OrderPackedEvent is raised when every line of an order is verified
type OrderPackedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
}

// NewOrderPackedEvent creates a new OrderPackedEvent
func NewOrderPackedEvent(orderID uuid.UUID) *OrderPackedEvent {
	return &OrderPackedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPacked, AggregateTypeVerification, orderID),
		OrderID:         orderID,
	}
}

// EventType returns the event type name
func (e *OrderPackedEvent) EventType() string {
	return EventTypeOrderPacked
}
