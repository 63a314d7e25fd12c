package models

import (
	"time"

	"github.com/fulfillment/backend/internal/domain/packaging"
	"github.com/google/uuid"
)

// VerificationModel is the persistence model for packaging verification rows
type VerificationModel struct {
	BaseModel
	OrderID       uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderItemID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	RequiredScans int       `gorm:"not null"`
	ScannedCount  int       `gorm:"not null;default:0"`
	IsVerified    bool      `gorm:"not null;default:false"`
	PackedWeight  string    `gorm:"type:varchar(50)"`
	PackedFlavor  string    `gorm:"type:varchar(100)"`
	PackedSize    string    `gorm:"type:varchar(50)"`
	Notes         string    `gorm:"type:text"`
	VerifiedAt    *time.Time
}

// TableName returns the table name for GORM
func (VerificationModel) TableName() string {
	return "packaging_verifications"
}

// ToDomain converts the persistence model to a domain Verification
func (m *VerificationModel) ToDomain() *packaging.Verification {
	return &packaging.Verification{
		BaseEntity:    m.BaseModel.ToDomain(),
		OrderID:       m.OrderID,
		OrderItemID:   m.OrderItemID,
		RequiredScans: m.RequiredScans,
		ScannedCount:  m.ScannedCount,
		IsVerified:    m.IsVerified,
		PackedWeight:  m.PackedWeight,
		PackedFlavor:  m.PackedFlavor,
		PackedSize:    m.PackedSize,
		Notes:         m.Notes,
		VerifiedAt:    m.VerifiedAt,
	}
}

// FromDomain populates the persistence model from a domain Verification
func (m *VerificationModel) FromDomain(v *packaging.Verification) {
	m.FromDomainBaseEntity(v.BaseEntity)
	m.OrderID = v.OrderID
	m.OrderItemID = v.OrderItemID
	m.RequiredScans = v.RequiredScans
	m.ScannedCount = v.ScannedCount
	m.IsVerified = v.IsVerified
	m.PackedWeight = v.PackedWeight
	m.PackedFlavor = v.PackedFlavor
	m.PackedSize = v.PackedSize
	m.Notes = v.Notes
	m.VerifiedAt = v.VerifiedAt
}

// ScanEventModel is the persistence model for the append-only scan log
type ScanEventModel struct {
	BaseModel
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderItemID uuid.UUID `gorm:"type:uuid;not null;index"`
	Barcode     string    `gorm:"type:varchar(100);not null"`
	Sequence    int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ScanEventModel) TableName() string {
	return "barcode_scan_events"
}

// ToDomain converts the persistence model to a domain ScanEvent
func (m *ScanEventModel) ToDomain() *packaging.ScanEvent {
	return &packaging.ScanEvent{
		BaseEntity:  m.BaseModel.ToDomain(),
		OrderID:     m.OrderID,
		OrderItemID: m.OrderItemID,
		Barcode:     m.Barcode,
		Sequence:    m.Sequence,
	}
}

// FromDomain populates the persistence model from a domain ScanEvent
func (m *ScanEventModel) FromDomain(e *packaging.ScanEvent) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.OrderID = e.OrderID
	m.OrderItemID = e.OrderItemID
	m.Barcode = e.Barcode
	m.Sequence = e.Sequence
}
