package fulfillment

import (
	"context"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderRepository persists Order aggregates. Soft-deleted orders are
// invisible to every query except explicit restore tooling.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	// FindByItemID resolves the order that owns the given line
	FindByItemID(ctx context.Context, itemID uuid.UUID) (*Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, order *Order) error
	// SaveWithLock saves under an optimistic version check and replaces
	// the item set in the same transaction
	SaveWithLock(ctx context.Context, order *Order) error
	// SoftDelete marks the order deleted and writes the audit entry in
	// one transaction
	SoftDelete(ctx context.Context, id uuid.UUID, audit *OrderAuditEntry) error
	GenerateOrderNumber(ctx context.Context) (string, error)
}
