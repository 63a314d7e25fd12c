package models

import (
	"time"

	"github.com/fulfillment/backend/internal/domain/treasury"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashEntryModel is the persistence model for warehouse cash ledger entries
type CashEntryModel struct {
	BaseModel
	OrderID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	OrderNumber    string               `gorm:"type:varchar(50);not null"`
	Source         treasury.EntrySource `gorm:"type:varchar(20);not null;index"`
	Amount         decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	AcceptedAmount decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentMethod  string               `gorm:"type:varchar(20)"`
	DeliveryMethod string               `gorm:"type:varchar(20)"`
	Status         treasury.EntryStatus `gorm:"type:varchar(20);not null;index"`
	RegisteredBy   uuid.UUID            `gorm:"type:uuid;not null"`
	AcceptedBy     *uuid.UUID           `gorm:"type:uuid"`
	RegisteredAt   time.Time            `gorm:"not null;index"`
	AcceptedAt     *time.Time           `gorm:"index"`
}

// TableName returns the table name for GORM
func (CashEntryModel) TableName() string {
	return "cash_ledger_entries"
}

// ToDomain converts the persistence model to a domain CashEntry
func (m *CashEntryModel) ToDomain() *treasury.CashEntry {
	return &treasury.CashEntry{
		BaseEntity:     m.BaseModel.ToDomain(),
		OrderID:        m.OrderID,
		OrderNumber:    m.OrderNumber,
		Source:         m.Source,
		Amount:         m.Amount,
		AcceptedAmount: m.AcceptedAmount,
		PaymentMethod:  m.PaymentMethod,
		DeliveryMethod: m.DeliveryMethod,
		Status:         m.Status,
		RegisteredBy:   m.RegisteredBy,
		AcceptedBy:     m.AcceptedBy,
		RegisteredAt:   m.RegisteredAt,
		AcceptedAt:     m.AcceptedAt,
	}
}

// FromDomain populates the persistence model from a domain CashEntry
func (m *CashEntryModel) FromDomain(e *treasury.CashEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.OrderID = e.OrderID
	m.OrderNumber = e.OrderNumber
	m.Source = e.Source
	m.Amount = e.Amount
	m.AcceptedAmount = e.AcceptedAmount
	m.PaymentMethod = e.PaymentMethod
	m.DeliveryMethod = e.DeliveryMethod
	m.Status = e.Status
	m.RegisteredBy = e.RegisteredBy
	m.AcceptedBy = e.AcceptedBy
	m.RegisteredAt = e.RegisteredAt
	m.AcceptedAt = e.AcceptedAt
}

// HandoverActModel is the persistence model for courier handover acts
type HandoverActModel struct {
	AggregateModel
	MessengerID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	ClosingDate    time.Time             `gorm:"not null;index"`
	ExpectedAmount decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	DeclaredAmount decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Difference     decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Status         treasury.ActStatus    `gorm:"type:varchar(20);not null;index"`
	ApprovedBy     *uuid.UUID            `gorm:"type:uuid"`
	ClosedAt       *time.Time            `gorm:"index"`
	Details        []HandoverDetailModel `gorm:"foreignKey:ActID;references:ID"`
}

// TableName returns the table name for GORM
func (HandoverActModel) TableName() string {
	return "handover_acts"
}

// ToDomain converts the persistence model to a domain HandoverAct
func (m *HandoverActModel) ToDomain() *treasury.HandoverAct {
	act := &treasury.HandoverAct{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		MessengerID:       m.MessengerID,
		ClosingDate:       m.ClosingDate,
		ExpectedAmount:    m.ExpectedAmount,
		DeclaredAmount:    m.DeclaredAmount,
		Difference:        m.Difference,
		Status:            m.Status,
		ApprovedBy:        m.ApprovedBy,
		ClosedAt:          m.ClosedAt,
		Details:           make([]treasury.HandoverDetail, len(m.Details)),
	}
	for i, d := range m.Details {
		act.Details[i] = *d.ToDomain()
	}
	return act
}

// FromDomain populates the persistence model from a domain HandoverAct
func (m *HandoverActModel) FromDomain(a *treasury.HandoverAct) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.MessengerID = a.MessengerID
	m.ClosingDate = a.ClosingDate
	m.ExpectedAmount = a.ExpectedAmount
	m.DeclaredAmount = a.DeclaredAmount
	m.Difference = a.Difference
	m.Status = a.Status
	m.ApprovedBy = a.ApprovedBy
	m.ClosedAt = a.ClosedAt
	m.Details = make([]HandoverDetailModel, len(a.Details))
	for i := range a.Details {
		m.Details[i].FromDomain(&a.Details[i])
	}
}

// HandoverDetailModel is the persistence model for act detail lines
type HandoverDetailModel struct {
	BaseModel
	ActID          uuid.UUID            `gorm:"type:uuid;not null;index"`
	OrderID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	OrderNumber    string               `gorm:"type:varchar(50);not null"`
	ExpectedAmount decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	DeclaredAmount decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Status         treasury.EntryStatus `gorm:"type:varchar(20);not null;index"`
	AcceptedBy     *uuid.UUID           `gorm:"type:uuid"`
	AcceptedAt     *time.Time
}

// TableName returns the table name for GORM
func (HandoverDetailModel) TableName() string {
	return "handover_details"
}

// ToDomain converts the persistence model to a domain HandoverDetail
func (m *HandoverDetailModel) ToDomain() *treasury.HandoverDetail {
	return &treasury.HandoverDetail{
		BaseEntity:     m.BaseModel.ToDomain(),
		ActID:          m.ActID,
		OrderID:        m.OrderID,
		OrderNumber:    m.OrderNumber,
		ExpectedAmount: m.ExpectedAmount,
		DeclaredAmount: m.DeclaredAmount,
		Status:         m.Status,
		AcceptedBy:     m.AcceptedBy,
		AcceptedAt:     m.AcceptedAt,
	}
}

// FromDomain populates the persistence model from a domain HandoverDetail
func (m *HandoverDetailModel) FromDomain(d *treasury.HandoverDetail) {
	m.FromDomainBaseEntity(d.BaseEntity)
	m.ActID = d.ActID
	m.OrderID = d.OrderID
	m.OrderNumber = d.OrderNumber
	m.ExpectedAmount = d.ExpectedAmount
	m.DeclaredAmount = d.DeclaredAmount
	m.Status = d.Status
	m.AcceptedBy = d.AcceptedBy
	m.AcceptedAt = d.AcceptedAt
}
