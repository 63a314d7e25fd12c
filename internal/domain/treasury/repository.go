package treasury

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PendingCashItem is one row of the "cash still owed" union across
// courier deliveries and warehouse entries
type PendingCashItem struct {
	Kind        ActKind         `json:"kind"`
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	EntryID     *uuid.UUID      `json:"entry_id,omitempty"`
	MessengerID *uuid.UUID      `json:"messenger_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	CollectedAt time.Time       `json:"collected_at"`
}

// CashEntryRepository persists warehouse cash ledger entries
type CashEntryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CashEntry, error)
	FindWarehouseEntryByOrder(ctx context.Context, orderID uuid.UUID) (*CashEntry, error)
	// CreateIfAbsent inserts the entry unless the order already has a
	// warehouse entry. Returns false when the existing entry won.
	CreateIfAbsent(ctx context.Context, entry *CashEntry) (bool, error)
	Save(ctx context.Context, entry *CashEntry) error
	FindPendingWarehouse(ctx context.Context, limit int) ([]CashEntry, error)
	FindAcceptedWarehouseByDate(ctx context.Context, date time.Time) ([]CashEntry, error)
	// AcceptedWarehouseDays groups accepted warehouse entries per day,
	// newest day first
	AcceptedWarehouseDays(ctx context.Context) ([]DailyConsolidation, error)
}

// HandoverRepository persists courier handover acts and serves the
// cross-source pending query
type HandoverRepository interface {
	FindActByID(ctx context.Context, id uuid.UUID) (*HandoverAct, error)
	FindActs(ctx context.Context) ([]HandoverAct, error)
	FindOpenActForMessenger(ctx context.Context, messengerID uuid.UUID, closingDate time.Time) (*HandoverAct, error)
	// FindOpenActByOrder locates the open act holding a detail row for
	// the order, regardless of courier or closing date
	FindOpenActByOrder(ctx context.Context, orderID uuid.UUID) (*HandoverAct, error)
	Save(ctx context.Context, act *HandoverAct) error
	// SaveWithLock saves the act and its details under an optimistic
	// version check in one transaction
	SaveWithLock(ctx context.Context, act *HandoverAct) error
	// PendingCourierCollections returns delivered orders with a nonzero
	// collected amount that have no collected handover detail yet
	PendingCourierCollections(ctx context.Context, limit int) ([]PendingCashItem, error)
}
