package treasury

import (
	"time"

	"github.com/fulfillment/backend/internal/domain/treasury"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PendingResponse is the unioned "cash still owed" listing
type PendingResponse struct {
	Items []treasury.PendingCashItem `json:"items"`
	Total int                        `json:"total"`
}

// HandoverDetailResponse is one order line of an act receipt
type HandoverDetailResponse struct {
	OrderID        uuid.UUID       `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	DeclaredAmount decimal.Decimal `json:"declared_amount"`
	Status         string          `json:"status"`
	AcceptedAt     *time.Time      `json:"accepted_at,omitempty"`
}

// ReceiptResponse is the printable reconciliation summary of one
// handover, persisted or synthesized
type ReceiptResponse struct {
	View    treasury.HandoverView    `json:"handover"`
	Details []HandoverDetailResponse `json:"details"`
	Summary string                   `json:"summary"`
}

// AcceptEntryRequest optionally overrides the accepted amount
type AcceptEntryRequest struct {
	Amount *decimal.Decimal
}

// AcceptEntryResponse reports the outcome of accepting a ledger entry
type AcceptEntryResponse struct {
	EntryID        uuid.UUID       `json:"entry_id"`
	OrderNumber    string          `json:"order_number"`
	Status         string          `json:"status"`
	AcceptedAmount decimal.Decimal `json:"accepted_amount"`
	AlreadyDone    bool            `json:"already_done"`
}

// DeclareCollectionRequest declares one courier collection as a pending
// detail on the courier's open act for the closing date
type DeclareCollectionRequest struct {
	OrderID        uuid.UUID
	DeclaredAmount *decimal.Decimal
}

// AcceptCollectionRequest accepts a previously declared collection
type AcceptCollectionRequest struct {
	OrderID uuid.UUID
}

// CloseActResponse reports the outcome of closing a courier act
type CloseActResponse struct {
	ActID          uuid.UUID       `json:"act_id"`
	Status         string          `json:"status"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	DeclaredAmount decimal.Decimal `json:"declared_amount"`
	Difference     decimal.Decimal `json:"difference"`
	TotalCount     int             `json:"total_count"`
	CollectedCount int             `json:"collected_count"`
}

func toDetailResponses(details []treasury.HandoverDetail) []HandoverDetailResponse {
	out := make([]HandoverDetailResponse, len(details))
	for i, d := range details {
		out[i] = HandoverDetailResponse{
			OrderID:        d.OrderID,
			OrderNumber:    d.OrderNumber,
			ExpectedAmount: d.ExpectedAmount,
			DeclaredAmount: d.DeclaredAmount,
			Status:         string(d.Status),
			AcceptedAt:     d.AcceptedAt,
		}
	}
	return out
}
