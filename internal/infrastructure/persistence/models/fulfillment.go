package models

import (
	"time"

	"github.com/fulfillment/backend/internal/domain/fulfillment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderModel is the persistence model for the Order aggregate root
type OrderModel struct {
	AggregateModel
	OrderNumber     string                     `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerName    string                     `gorm:"type:varchar(200);not null"`
	CustomerPhone   string                     `gorm:"type:varchar(50)"`
	CustomerAddress string                     `gorm:"type:varchar(500)"`
	CustomerCity    string                     `gorm:"type:varchar(100)"`
	Status          fulfillment.OrderStatus    `gorm:"type:varchar(32);not null;index"`
	PaymentMethod   fulfillment.PaymentMethod  `gorm:"type:varchar(20);not null"`
	DeliveryMethod  fulfillment.DeliveryMethod `gorm:"type:varchar(20);not null"`
	CarrierCode     string                     `gorm:"type:varchar(50)"`
	TotalAmount     decimal.Decimal            `gorm:"type:decimal(18,2);not null;default:0"`
	Items           []OrderItemModel           `gorm:"foreignKey:OrderID;references:ID"`

	AssignedMessengerID *uuid.UUID `gorm:"type:uuid;index"`
	ShippingDate        *time.Time `gorm:"index"`
	ShippingDateLocked  bool       `gorm:"not null;default:false"`

	CarteraRejected bool   `gorm:"not null;default:false"`
	CarteraNotes    string `gorm:"type:text"`

	CollectedAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DeliveryFeeCollected decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	InvoiceRef string `gorm:"type:varchar(100)"`

	DeliveredAt *time.Time `gorm:"index"`
	CancelledAt *time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *fulfillment.Order {
	order := &fulfillment.Order{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		OrderNumber:          m.OrderNumber,
		CustomerName:         m.CustomerName,
		CustomerPhone:        m.CustomerPhone,
		CustomerAddress:      m.CustomerAddress,
		CustomerCity:         m.CustomerCity,
		Status:               m.Status,
		PaymentMethod:        m.PaymentMethod,
		DeliveryMethod:       m.DeliveryMethod,
		CarrierCode:          m.CarrierCode,
		TotalAmount:          m.TotalAmount,
		AssignedMessengerID:  m.AssignedMessengerID,
		ShippingDate:         m.ShippingDate,
		ShippingDateLocked:   m.ShippingDateLocked,
		CarteraRejected:      m.CarteraRejected,
		CarteraNotes:         m.CarteraNotes,
		CollectedAmount:      m.CollectedAmount,
		DeliveryFeeCollected: m.DeliveryFeeCollected,
		InvoiceRef:           m.InvoiceRef,
		DeliveredAt:          m.DeliveredAt,
		CancelledAt:          m.CancelledAt,
		DeletedAt:            m.DeletedAt,
		Items:                make([]fulfillment.OrderItem, len(m.Items)),
	}
	for i, item := range m.Items {
		order.Items[i] = *item.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *fulfillment.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerName = o.CustomerName
	m.CustomerPhone = o.CustomerPhone
	m.CustomerAddress = o.CustomerAddress
	m.CustomerCity = o.CustomerCity
	m.Status = o.Status
	m.PaymentMethod = o.PaymentMethod
	m.DeliveryMethod = o.DeliveryMethod
	m.CarrierCode = o.CarrierCode
	m.TotalAmount = o.TotalAmount
	m.AssignedMessengerID = o.AssignedMessengerID
	m.ShippingDate = o.ShippingDate
	m.ShippingDateLocked = o.ShippingDateLocked
	m.CarteraRejected = o.CarteraRejected
	m.CarteraNotes = o.CarteraNotes
	m.CollectedAmount = o.CollectedAmount
	m.DeliveryFeeCollected = o.DeliveryFeeCollected
	m.InvoiceRef = o.InvoiceRef
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.DeletedAt = o.DeletedAt
	m.Items = make([]OrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i].FromDomain(&o.Items[i])
	}
}

// OrderItemModel is the persistence model for order lines
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Description string          `gorm:"type:text"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem
func (m *OrderItemModel) ToDomain() *fulfillment.OrderItem {
	return &fulfillment.OrderItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		Name:        m.Name,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Amount:      m.Amount,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain OrderItem
func (m *OrderItemModel) FromDomain(i *fulfillment.OrderItem) {
	m.ID = i.ID
	m.OrderID = i.OrderID
	m.Name = i.Name
	m.Quantity = i.Quantity
	m.UnitPrice = i.UnitPrice
	m.Amount = i.Amount
	m.Description = i.Description
	m.CreatedAt = i.CreatedAt
	m.UpdatedAt = i.UpdatedAt
}

// OrderAuditModel is the persistence model for order audit entries
type OrderAuditModel struct {
	BaseModel
	OrderID     uuid.UUID               `gorm:"type:uuid;not null;index"`
	OrderNumber string                  `gorm:"type:varchar(50);not null"`
	Action      fulfillment.AuditAction `gorm:"type:varchar(20);not null"`
	ActorID     uuid.UUID               `gorm:"type:uuid;not null"`
	ActorRole   fulfillment.Role        `gorm:"type:varchar(20);not null"`
	Reason      string                  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OrderAuditModel) TableName() string {
	return "order_audit_entries"
}

// ToDomain converts the persistence model to a domain OrderAuditEntry
func (m *OrderAuditModel) ToDomain() *fulfillment.OrderAuditEntry {
	return &fulfillment.OrderAuditEntry{
		BaseEntity:  m.BaseModel.ToDomain(),
		OrderID:     m.OrderID,
		OrderNumber: m.OrderNumber,
		Action:      m.Action,
		ActorID:     m.ActorID,
		ActorRole:   m.ActorRole,
		Reason:      m.Reason,
	}
}

// FromDomain populates the persistence model from a domain OrderAuditEntry
func (m *OrderAuditModel) FromDomain(a *fulfillment.OrderAuditEntry) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.OrderID = a.OrderID
	m.OrderNumber = a.OrderNumber
	m.Action = a.Action
	m.ActorID = a.ActorID
	m.ActorRole = a.ActorRole
	m.Reason = a.Reason
}
