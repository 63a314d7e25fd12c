package treasury

import (
	"time"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryStatus is the lifecycle of a collected-money fact
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCollected EntryStatus = "collected"
)

// EntrySource identifies where the cash changed hands
type EntrySource string

const (
	SourceWarehouse EntrySource = "bodega"
	SourceMessenger EntrySource = "mensajero"
)

// CashEntry is one collected-money fact. Warehouse collections are
// first-class rows, created exactly once per order; courier collections
// participate through handover details instead.
type CashEntry struct {
	shared.BaseEntity
	OrderID        uuid.UUID `gorm:"index"`
	OrderNumber    string
	Source         EntrySource
	Amount         decimal.Decimal
	AcceptedAmount decimal.Decimal
	PaymentMethod  string
	DeliveryMethod string
	Status         EntryStatus
	RegisteredBy   uuid.UUID
	AcceptedBy     *uuid.UUID
	RegisteredAt   time.Time
	AcceptedAt     *time.Time
}

// NewWarehouseCashEntry records cash received at warehouse pickup
func NewWarehouseCashEntry(orderID uuid.UUID, orderNumber string, amount decimal.Decimal, paymentMethod, deliveryMethod string, registeredBy uuid.UUID) (*CashEntry, error) {
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Cash amount cannot be negative")
	}
	return &CashEntry{
		BaseEntity:     shared.NewBaseEntity(),
		OrderID:        orderID,
		OrderNumber:    orderNumber,
		Source:         SourceWarehouse,
		Amount:         amount,
		AcceptedAmount: decimal.Zero,
		PaymentMethod:  paymentMethod,
		DeliveryMethod: deliveryMethod,
		Status:         EntryStatusPending,
		RegisteredBy:   registeredBy,
		RegisteredAt:   time.Now(),
	}, nil
}

// Accept moves the entry to collected, stamping acceptor and timestamp.
// The accepted amount defaults to the registered amount when no override
// is given. Accepting an already collected entry is a no-op success.
func (e *CashEntry) Accept(acceptedBy uuid.UUID, amount *decimal.Decimal) (bool, error) {
	if e.Status == EntryStatusCollected {
		return false, nil
	}

	accepted := e.Amount
	if amount != nil {
		if amount.IsNegative() {
			return false, shared.NewDomainError("INVALID_AMOUNT", "Accepted amount cannot be negative")
		}
		accepted = *amount
	}

	now := time.Now()
	e.Status = EntryStatusCollected
	e.AcceptedAmount = accepted
	e.AcceptedBy = &acceptedBy
	e.AcceptedAt = &now
	e.UpdatedAt = now
	return true, nil
}

// Reprice updates the registered amount of a pending entry. A collected
// entry never changes; the handover already happened at the old amount.
func (e *CashEntry) Reprice(amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, shared.NewDomainError("INVALID_AMOUNT", "Cash amount cannot be negative")
	}
	if e.Status == EntryStatusCollected || e.Amount.Equal(amount) {
		return false, nil
	}
	e.Amount = amount
	e.Touch()
	return true, nil
}

// IsReconciled returns true if the accepted amount matched the registered one
func (e *CashEntry) IsReconciled() bool {
	return e.Status == EntryStatusCollected && e.AcceptedAmount.Equal(e.Amount)
}
