package treasury

import (
	"fmt"
	"time"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActStatus is the state of a handover act
type ActStatus string

const (
	ActStatusOpen        ActStatus = "open"
	ActStatusCompleted   ActStatus = "completed"
	ActStatusDiscrepancy ActStatus = "discrepancy"
)

// ActKind tags the two shapes a handover can take
type ActKind string

const (
	ActKindMessenger ActKind = "mensajero"
	ActKindWarehouse ActKind = "bodega"
)

// HandoverDetail is one order line inside a messenger handover act
type HandoverDetail struct {
	shared.BaseEntity
	ActID          uuid.UUID `gorm:"index"`
	OrderID        uuid.UUID
	OrderNumber    string
	ExpectedAmount decimal.Decimal
	DeclaredAmount decimal.Decimal
	Status         EntryStatus
	AcceptedBy     *uuid.UUID
	AcceptedAt     *time.Time
}

// NewHandoverDetail creates a pending detail line for an order
func NewHandoverDetail(actID, orderID uuid.UUID, orderNumber string, expected, declared decimal.Decimal) (*HandoverDetail, error) {
	if expected.IsNegative() || declared.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Handover amounts cannot be negative")
	}
	return &HandoverDetail{
		BaseEntity:     shared.NewBaseEntity(),
		ActID:          actID,
		OrderID:        orderID,
		OrderNumber:    orderNumber,
		ExpectedAmount: expected,
		DeclaredAmount: declared,
		Status:         EntryStatusPending,
	}, nil
}

// Accept marks the detail collected. Idempotent.
func (d *HandoverDetail) Accept(acceptedBy uuid.UUID) bool {
	if d.Status == EntryStatusCollected {
		return false
	}
	now := time.Now()
	d.Status = EntryStatusCollected
	d.AcceptedBy = &acceptedBy
	d.AcceptedAt = &now
	d.UpdatedAt = now
	return true
}

// HandoverAct groups one courier's collections for one closing date.
// Its aggregates are a deterministic function of its detail rows.
type HandoverAct struct {
	shared.BaseAggregateRoot
	MessengerID    uuid.UUID `gorm:"index"`
	ClosingDate    time.Time
	ExpectedAmount decimal.Decimal
	DeclaredAmount decimal.Decimal
	Difference     decimal.Decimal
	Status         ActStatus
	ApprovedBy     *uuid.UUID
	ClosedAt       *time.Time
	Details        []HandoverDetail
}

// NewHandoverAct opens an act for a courier and closing date
func NewHandoverAct(messengerID uuid.UUID, closingDate time.Time) *HandoverAct {
	return &HandoverAct{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MessengerID:       messengerID,
		ClosingDate:       closingDate,
		ExpectedAmount:    decimal.Zero,
		DeclaredAmount:    decimal.Zero,
		Difference:        decimal.Zero,
		Status:            ActStatusOpen,
	}
}

// AddDetail appends a detail row. Allowed until the act is closed.
func (a *HandoverAct) AddDetail(orderID uuid.UUID, orderNumber string, expected, declared decimal.Decimal) (*HandoverDetail, error) {
	if a.IsClosed() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add details to a closed handover act")
	}
	for _, d := range a.Details {
		if d.OrderID == orderID {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Order is already part of this handover act")
		}
	}
	detail, err := NewHandoverDetail(a.ID, orderID, orderNumber, expected, declared)
	if err != nil {
		return nil, err
	}
	a.Details = append(a.Details, *detail)
	a.Touch()
	return detail, nil
}

// AcceptDetail marks the detail row for an order as collected. Returns
// the row and whether this call changed it. Closed acts reject the
// mutation and unknown orders are a not-found error.
func (a *HandoverAct) AcceptDetail(orderID, acceptedBy uuid.UUID) (*HandoverDetail, bool, error) {
	if a.IsClosed() {
		return nil, false, shared.NewDomainError("INVALID_STATE", "Cannot accept details on a closed handover act")
	}
	for i := range a.Details {
		if a.Details[i].OrderID == orderID {
			changed := a.Details[i].Accept(acceptedBy)
			if changed {
				a.Touch()
			}
			return &a.Details[i], changed, nil
		}
	}
	return nil, false, shared.NewDomainError("NOT_FOUND", "Order has no detail row in this handover act")
}

// CollectedCount returns how many detail rows have been accepted
func (a *HandoverAct) CollectedCount() int {
	n := 0
	for _, d := range a.Details {
		if d.Status == EntryStatusCollected {
			n++
		}
	}
	return n
}

// Close finalizes the act: sums its detail rows, classifies the outcome
// and stamps the approver. Closing an empty act is a validation error;
// a discrepancy is a valid terminal outcome, not an error. Closing is
// not reversible through this aggregate.
func (a *HandoverAct) Close(approvedBy uuid.UUID) error {
	if a.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Handover act is already closed")
	}
	if len(a.Details) == 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Nothing to close: handover act has no detail rows")
	}

	expected := decimal.Zero
	declared := decimal.Zero
	collected := 0
	for _, d := range a.Details {
		expected = expected.Add(d.ExpectedAmount)
		declared = declared.Add(d.DeclaredAmount)
		if d.Status == EntryStatusCollected {
			collected++
		}
	}

	now := time.Now()
	a.ExpectedAmount = expected
	a.DeclaredAmount = declared
	a.Difference = declared.Sub(expected)
	if collected == len(a.Details) {
		a.Status = ActStatusCompleted
	} else {
		a.Status = ActStatusDiscrepancy
	}
	a.ApprovedBy = &approvedBy
	a.ClosedAt = &now
	a.UpdatedAt = now

	a.AddDomainEvent(NewActClosedEvent(a))

	return nil
}

// IsClosed returns true once the act has been finalized
func (a *HandoverAct) IsClosed() bool {
	return a.ClosedAt != nil
}

// WarehouseActKey derives the stable, reproducible identifier of the
// synthesized per-day warehouse consolidation. Clients may treat it as a
// persistent key even though no row backs it.
func WarehouseActKey(date time.Time) string {
	return fmt.Sprintf("bodega:%s", date.Format("2006-01-02"))
}

// HandoverView is the shared read-only projection over persisted courier
// acts and synthesized warehouse consolidations
type HandoverView struct {
	Kind           ActKind         `json:"kind"`
	Key            string          `json:"key"`
	ActID          *uuid.UUID      `json:"act_id,omitempty"`
	MessengerID    *uuid.UUID      `json:"messenger_id,omitempty"`
	Date           time.Time       `json:"date"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	DeclaredAmount decimal.Decimal `json:"declared_amount"`
	Status         ActStatus       `json:"status"`
	TotalCount     int             `json:"total_count"`
	CollectedCount int             `json:"collected_count"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty"`
}

// ViewOfAct projects a persisted courier act
func ViewOfAct(a *HandoverAct) HandoverView {
	id := a.ID
	messengerID := a.MessengerID
	return HandoverView{
		Kind:           ActKindMessenger,
		Key:            id.String(),
		ActID:          &id,
		MessengerID:    &messengerID,
		Date:           a.ClosingDate,
		ExpectedAmount: a.ExpectedAmount,
		DeclaredAmount: a.DeclaredAmount,
		Status:         a.Status,
		TotalCount:     len(a.Details),
		CollectedCount: a.CollectedCount(),
		ClosedAt:       a.ClosedAt,
	}
}

// DailyConsolidation aggregates one day of accepted warehouse entries
type DailyConsolidation struct {
	Date           time.Time
	ExpectedAmount decimal.Decimal
	DeclaredAmount decimal.Decimal
	TotalCount     int
	CollectedCount int
}

// ViewOfConsolidation projects a synthesized warehouse day. It is
// implicitly completed once every entry of the day is collected.
func ViewOfConsolidation(c DailyConsolidation) HandoverView {
	status := ActStatusOpen
	if c.TotalCount > 0 && c.CollectedCount == c.TotalCount {
		status = ActStatusCompleted
	}
	return HandoverView{
		Kind:           ActKindWarehouse,
		Key:            WarehouseActKey(c.Date),
		Date:           c.Date,
		ExpectedAmount: c.ExpectedAmount,
		DeclaredAmount: c.DeclaredAmount,
		Status:         status,
		TotalCount:     c.TotalCount,
		CollectedCount: c.CollectedCount,
	}
}
