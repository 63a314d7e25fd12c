package treasury

import (
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeCashEntry   = "CashEntry"
	AggregateTypeHandoverAct = "HandoverAct"
)

// Event type constants
const (
	EventTypeCashRegistered = "CashRegistered"
	EventTypeCashAccepted   = "CashAccepted"
	EventTypeActClosed      = "HandoverActClosed"
)

// CashRegisteredEvent is raised when money is recorded as collected
type CashRegisteredEvent struct {
	shared.BaseDomainEvent
	EntryID uuid.UUID       `json:"entry_id"`
	OrderID uuid.UUID       `json:"order_id"`
	Source  EntrySource     `json:"source"`
	Amount  decimal.Decimal `json:"amount"`
}

// NewCashRegisteredEvent creates a new CashRegisteredEvent
func NewCashRegisteredEvent(e *CashEntry) *CashRegisteredEvent {
	return &CashRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashRegistered, AggregateTypeCashEntry, e.ID),
		EntryID:         e.ID,
		OrderID:         e.OrderID,
		Source:          e.Source,
		Amount:          e.Amount,
	}
}

// EventType returns the event type name
func (e *CashRegisteredEvent) EventType() string {
	return EventTypeCashRegistered
}

// CashAcceptedEvent is raised when accounts-receivable accepts an entry
type CashAcceptedEvent struct {
	shared.BaseDomainEvent
	EntryID        uuid.UUID       `json:"entry_id"`
	OrderID        uuid.UUID       `json:"order_id"`
	AcceptedAmount decimal.Decimal `json:"accepted_amount"`
	AcceptedBy     uuid.UUID       `json:"accepted_by"`
}

// NewCashAcceptedEvent creates a new CashAcceptedEvent
func NewCashAcceptedEvent(e *CashEntry) *CashAcceptedEvent {
	var acceptedBy uuid.UUID
	if e.AcceptedBy != nil {
		acceptedBy = *e.AcceptedBy
	}
	return &CashAcceptedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashAccepted, AggregateTypeCashEntry, e.ID),
		EntryID:         e.ID,
		OrderID:         e.OrderID,
		AcceptedAmount:  e.AcceptedAmount,
		AcceptedBy:      acceptedBy,
	}
}

// EventType returns the event type name
func (e *CashAcceptedEvent) EventType() string {
	return EventTypeCashAccepted
}

// ActClosedEvent is raised when a courier handover act is finalized
type ActClosedEvent struct {
	shared.BaseDomainEvent
	ActID          uuid.UUID       `json:"act_id"`
	MessengerID    uuid.UUID       `json:"messenger_id"`
	Status         ActStatus       `json:"status"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	DeclaredAmount decimal.Decimal `json:"declared_amount"`
}

// NewActClosedEvent creates a new ActClosedEvent
func NewActClosedEvent(a *HandoverAct) *ActClosedEvent {
	return &ActClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeActClosed, AggregateTypeHandoverAct, a.ID),
		ActID:           a.ID,
		MessengerID:     a.MessengerID,
		Status:          a.Status,
		ExpectedAmount:  a.ExpectedAmount,
		DeclaredAmount:  a.DeclaredAmount,
	}
}

// EventType returns the event type name
func (e *ActClosedEvent) EventType() string {
	return EventTypeActClosed
}
