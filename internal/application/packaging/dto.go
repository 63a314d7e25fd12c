package packaging

import (
	"time"

	"github.com/fulfillment/backend/internal/domain/packaging"
	"github.com/google/uuid"
)

// PackerAttributes are the free-form fields a packer records per line
type PackerAttributes struct {
	Weight string
	Flavor string
	Size   string
	Notes  string
}

// ChecklistItemResponse is the verification state of one order line
type ChecklistItemResponse struct {
	OrderItemID   uuid.UUID  `json:"order_item_id"`
	Name          string     `json:"name"`
	Quantity      int        `json:"quantity"`
	RequiredScans int        `json:"required_scans"`
	ScannedCount  int        `json:"scanned_count"`
	IsVerified    bool       `json:"is_verified"`
	PackedWeight  string     `json:"packed_weight,omitempty"`
	PackedFlavor  string     `json:"packed_flavor,omitempty"`
	PackedSize    string     `json:"packed_size,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
}

// ChecklistResponse is the per-order packaging checklist
type ChecklistResponse struct {
	OrderID     uuid.UUID               `json:"order_id"`
	OrderNumber string                  `json:"order_number"`
	Status      string                  `json:"status"`
	Verified    int                     `json:"verified"`
	Total       int                     `json:"total"`
	Items       []ChecklistItemResponse `json:"items"`
}

// VerifyResponse reports the outcome of a manual verification
type VerifyResponse struct {
	OrderID        uuid.UUID `json:"order_id"`
	TouchedLines   int       `json:"touched_lines"`
	OrderCompleted bool      `json:"order_completed"`
}

// ScanResponse reports the outcome of a barcode scan
type ScanResponse struct {
	OrderItemID     uuid.UUID `json:"order_item_id"`
	ProductName     string    `json:"product_name"`
	AlreadyVerified bool      `json:"already_verified"`
	ScannedCount    int       `json:"scanned_count"`
	RequiredScans   int       `json:"required_scans"`
	ItemVerified    bool      `json:"item_verified"`
	OrderCompleted  bool      `json:"order_completed"`
}

// ScanEventResponse is one recorded scan of an order line
type ScanEventResponse struct {
	Barcode   string    `json:"barcode"`
	Sequence  int       `json:"sequence"`
	ScannedAt time.Time `json:"scanned_at"`
}

// ScanLogResponse is the audit history of scans against one order line
type ScanLogResponse struct {
	OrderID     uuid.UUID           `json:"order_id"`
	OrderItemID uuid.UUID           `json:"order_item_id"`
	ItemName    string              `json:"item_name"`
	Total       int                 `json:"total"`
	Scans       []ScanEventResponse `json:"scans"`
}

// CompleteResponse reports an explicit completion
type CompleteResponse struct {
	OrderID  uuid.UUID `json:"order_id"`
	Verified int       `json:"verified"`
	Total    int       `json:"total"`
}

func toChecklistItem(itemID uuid.UUID, name string, quantity int, v *packaging.Verification) ChecklistItemResponse {
	resp := ChecklistItemResponse{
		OrderItemID:   itemID,
		Name:          name,
		Quantity:      quantity,
		RequiredScans: quantity,
	}
	if v != nil {
		resp.RequiredScans = v.RequiredScans
		resp.ScannedCount = v.ScannedCount
		resp.IsVerified = v.IsVerified
		resp.PackedWeight = v.PackedWeight
		resp.PackedFlavor = v.PackedFlavor
		resp.PackedSize = v.PackedSize
		resp.Notes = v.Notes
		resp.VerifiedAt = v.VerifiedAt
	}
	return resp
}
