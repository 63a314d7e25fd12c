package packaging

import (
	"context"

	"github.com/google/uuid"
)

// ScanResult is the outcome of an atomic scan increment
type ScanResult struct {
	// Applied is false when the line had already reached required_scans
	Applied bool
	// Sequence is the sequence number of the recorded scan event
	Sequence int
	// NowVerified is true when this scan completed the line
	NowVerified   bool
	ScannedCount  int
	RequiredScans int
}

// VerificationRepository persists verification rows and scan events
type VerificationRepository interface {
	FindByOrderItem(ctx context.Context, orderItemID uuid.UUID) (*Verification, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Verification, error)
	Save(ctx context.Context, v *Verification) error

	// IncrementScan atomically increments scanned_count while it is below
	// required_scans and appends the scan event with the next sequence
	// number, all in one transaction. A row that is already complete
	// yields Applied=false and no scan event.
	IncrementScan(ctx context.Context, v *Verification, barcode string) (*ScanResult, error)

	// MarkAllVerified upserts a verified row for every given order item
	// in one transaction, returning how many lines were newly verified
	MarkAllVerified(ctx context.Context, orderID uuid.UUID, orderItemIDs []uuid.UUID, requiredScans map[uuid.UUID]int) (int, error)

	// CountUnverified returns verified and total row counts over the
	// given item set; items without a row count as unverified
	CountVerified(ctx context.Context, orderID uuid.UUID, orderItemIDs []uuid.UUID) (verified int, total int, err error)

	ScanEventsByItem(ctx context.Context, orderItemID uuid.UUID) ([]ScanEvent, error)

	// ResetForOrder clears verification progress for an order. Invoked
	// only by the explicit replace-all-items operation; scan events are
	// kept as audit history.
	ResetForOrder(ctx context.Context, orderID uuid.UUID) error
}
