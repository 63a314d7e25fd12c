package packaging

import (
	"time"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Verification tracks scan progress for one order line. Created lazily on
// the first scan or manual confirmation; never deleted.
type Verification struct {
	shared.BaseEntity
	OrderID       uuid.UUID
	OrderItemID   uuid.UUID `gorm:"uniqueIndex"`
	RequiredScans int
	ScannedCount  int
	IsVerified    bool

	// Free-form packer-entered attributes
	PackedWeight string
	PackedFlavor string
	PackedSize   string
	Notes        string

	VerifiedAt *time.Time
}

// NewVerification creates a verification row for an order line.
// requiredScans is fixed at creation, defaulting to the line quantity.
func NewVerification(orderID, orderItemID uuid.UUID, requiredScans int) (*Verification, error) {
	if requiredScans <= 0 {
		return nil, shared.NewDomainError("INVALID_REQUIRED_SCANS", "Required scans must be positive")
	}
	return &Verification{
		BaseEntity:    shared.NewBaseEntity(),
		OrderID:       orderID,
		OrderItemID:   orderItemID,
		RequiredScans: requiredScans,
	}, nil
}

// IsComplete returns true once the line reached its required scans
func (v *Verification) IsComplete() bool {
	return v.ScannedCount >= v.RequiredScans
}

// MarkVerified completes the line manually, setting scanned_count to
// required_scans so the count invariant holds. Idempotent.
func (v *Verification) MarkVerified() bool {
	if v.IsVerified {
		return false
	}
	now := time.Now()
	v.ScannedCount = v.RequiredScans
	v.IsVerified = true
	v.VerifiedAt = &now
	v.UpdatedAt = now
	return true
}

// SetPackerAttributes records the packer-entered attributes
func (v *Verification) SetPackerAttributes(weight, flavor, size, notes string) {
	v.PackedWeight = weight
	v.PackedFlavor = flavor
	v.PackedSize = size
	v.Notes = notes
	v.Touch()
}

// ScanEvent is the append-only log of one barcode scan
type ScanEvent struct {
	shared.BaseEntity
	OrderID     uuid.UUID
	OrderItemID uuid.UUID
	Barcode     string
	// Sequence is the 1-based position of this scan within the item
	Sequence int
}

// NewScanEvent records one scan of a barcode against an order line
func NewScanEvent(orderID, orderItemID uuid.UUID, barcode string, sequence int) *ScanEvent {
	return &ScanEvent{
		BaseEntity:  shared.NewBaseEntity(),
		OrderID:     orderID,
		OrderItemID: orderItemID,
		Barcode:     barcode,
		Sequence:    sequence,
	}
}
