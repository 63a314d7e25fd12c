package fulfillment

import (
	"fmt"
	"strings"
	"time"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem represents a line item of an order
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Name        string
	Quantity    int
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrderItem creates a new order line
func NewOrderItem(orderID uuid.UUID, name string, quantity int, unitPrice decimal.Decimal, description string) (*OrderItem, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		Name:        name,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// MatchesProductName compares the line name against a product name using
// the scan-matching rule: trimmed, case-insensitive equality.
func (i *OrderItem) MatchesProductName(productName string) bool {
	return strings.EqualFold(strings.TrimSpace(i.Name), strings.TrimSpace(productName))
}

// Order is the aggregate root of the fulfillment state machine
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	CustomerCity    string
	Status          OrderStatus
	PaymentMethod   PaymentMethod
	DeliveryMethod  DeliveryMethod
	CarrierCode     string
	TotalAmount     decimal.Decimal
	Items           []OrderItem

	AssignedMessengerID *uuid.UUID
	ShippingDate        *time.Time
	// ShippingDateLocked is set once billing stamps the shipping date;
	// from then on other roles' updates to it are silently dropped.
	ShippingDateLocked bool

	CarteraRejected bool
	CarteraNotes    string

	// Delivery-tracking cash fields, stamped by the courier on delivered
	// transitions. They feed handover reconciliation, not the ledger table.
	CollectedAmount      decimal.Decimal
	DeliveryFeeCollected decimal.Decimal

	// InvoiceRef carries external-invoice metadata set by the ERP sync.
	InvoiceRef string

	DeliveredAt *time.Time
	CancelledAt *time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// NewOrder creates an order, choosing the initial status from the
// delivery/payment combination and normalizing the delivery method
func NewOrder(orderNumber, customerName string, delivery DeliveryMethod, payment PaymentMethod) (*Order, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if strings.TrimSpace(customerName) == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerName:      customerName,
		PaymentMethod:     payment,
		DeliveryMethod:    delivery,
		Status:            InitialStatus(delivery, payment),
		TotalAmount:       decimal.Zero,
		Items:             make([]OrderItem, 0),
	}
	order.applyCarrierRule()

	order.AddDomainEvent(NewOrderCreatedEvent(order))

	return order, nil
}

// applyCarrierRule assigns the fixed local courier carrier to any local
// home delivery, overriding whatever carrier was previously set
func (o *Order) applyCarrierRule() {
	if o.DeliveryMethod.IsLocalDelivery() {
		o.CarrierCode = LocalCarrierCode
	}
}

// SetDeliveryMethod changes the delivery method and re-applies the
// carrier normalization rule
func (o *Order) SetDeliveryMethod(delivery DeliveryMethod) {
	o.DeliveryMethod = delivery
	o.applyCarrierRule()
	o.Touch()
}

// AddItem appends a line and recalculates the order total
func (o *Order) AddItem(name string, quantity int, unitPrice decimal.Decimal, description string) (*OrderItem, error) {
	item, err := NewOrderItem(o.ID, name, quantity, unitPrice, description)
	if err != nil {
		return nil, err
	}
	o.Items = append(o.Items, *item)
	o.recalculateTotal()
	o.Touch()
	return item, nil
}

// ReplaceItems swaps out every line of the order. Callers must also reset
// packaging verification since line identity changes.
func (o *Order) ReplaceItems(items []OrderItem) error {
	if len(items) == 0 {
		return shared.NewDomainError("INVALID_ITEMS", "An order needs at least one item")
	}
	for i := range items {
		items[i].OrderID = o.ID
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	o.Items = items
	o.recalculateTotal()
	o.Touch()
	return nil
}

// TransitionTo moves the order to the target status. Authorization must
// already have happened through AuthorizeTransition.
func (o *Order) TransitionTo(target OrderStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("%q is not a valid order status", target))
	}
	if o.Status == target {
		return nil
	}

	previous := o.Status
	now := time.Now()
	o.Status = target
	o.UpdatedAt = now

	switch {
	case target.IsDelivered():
		o.DeliveredAt = &now
	case target == StatusCancelado:
		o.CancelledAt = &now
	}
	if target != StatusRevisionCartera {
		o.CarteraRejected = false
	}

	o.AddDomainEvent(NewOrderStatusChangedEvent(o, previous))

	return nil
}

// RejectByCartera keeps the order under wallet review with a rejection flag
func (o *Order) RejectByCartera(notes string) error {
	if o.Status != StatusRevisionCartera {
		return shared.NewDomainError("INVALID_STATE", "Only orders under wallet review can be rejected")
	}
	o.CarteraRejected = true
	o.CarteraNotes = notes
	o.Touch()
	return nil
}

// SetShippingDate applies the protected shipping-date rule. Billing sets
// or overwrites it during a non-automated update and locks it; any role
// may set it while unset. A write that loses to the lock is silently
// dropped, not rejected.
func (o *Order) SetShippingDate(role Role, date time.Time, automated bool) {
	switch {
	case o.ShippingDate == nil:
		o.ShippingDate = &date
		if role == RoleFacturacion && !automated {
			o.ShippingDateLocked = true
		}
	case role == RoleFacturacion && !automated:
		o.ShippingDate = &date
		o.ShippingDateLocked = true
	case !o.ShippingDateLocked:
		o.ShippingDate = &date
	}
	o.Touch()
}

// RecordDeliveryCollection stamps the cash amounts a courier collected
func (o *Order) RecordDeliveryCollection(payment, deliveryFee decimal.Decimal) error {
	if payment.IsNegative() || deliveryFee.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Collected amounts cannot be negative")
	}
	o.CollectedAmount = payment
	o.DeliveryFeeCollected = deliveryFee
	o.Touch()
	return nil
}

// AssignMessenger assigns a courier to the order
func (o *Order) AssignMessenger(messengerID uuid.UUID) {
	o.AssignedMessengerID = &messengerID
	o.Touch()
}

// RequiresWarehouseCashEntry reports whether entering logistics must
// record a warehouse cash ledger entry (pickup paid in cash)
func (o *Order) RequiresWarehouseCashEntry() bool {
	return o.DeliveryMethod.IsPickup() && o.PaymentMethod.IsCash()
}

// recalculateTotal recomputes the order total from its lines
func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount)
	}
	o.TotalAmount = total
}

// GetItem returns a line by its ID
func (o *Order) GetItem(itemID uuid.UUID) *OrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// FindItemByProductName returns the line matching a product name under
// the scan-matching rule, or nil
func (o *Order) FindItemByProductName(productName string) *OrderItem {
	for idx := range o.Items {
		if o.Items[idx].MatchesProductName(productName) {
			return &o.Items[idx]
		}
	}
	return nil
}
