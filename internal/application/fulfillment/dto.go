package fulfillment

import (
	"time"

	"github.com/fulfillment/backend/internal/domain/fulfillment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Actor identifies the authenticated user performing an operation
type Actor struct {
	ID   uuid.UUID
	Role fulfillment.Role
}

// CreateOrderItemInput is one line of a create request
type CreateOrderItemInput struct {
	Name        string
	Quantity    int
	UnitPrice   decimal.Decimal
	Description string
}

// CreateOrderRequest carries the fields billing submits for a new order
type CreateOrderRequest struct {
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	CustomerCity    string
	DeliveryMethod  string
	PaymentMethod   string
	ShippingDate    *time.Time
	Items           []CreateOrderItemInput
}

// UpdateOrderRequest carries a role-gated order mutation. Nil fields are
// left untouched.
type UpdateOrderRequest struct {
	Status              *string
	CustomerPhone       *string
	CustomerAddress     *string
	CustomerCity        *string
	DeliveryMethod      *string
	ShippingDate        *time.Time
	AssignedMessengerID *uuid.UUID
	Items               []CreateOrderItemInput
	CarteraRejected     bool
	CarteraNotes        string
	// Collected amounts stamped by the courier on delivered transitions
	PaymentCollected     *decimal.Decimal
	DeliveryFeeCollected *decimal.Decimal
	// Automated marks system-driven updates; the shipping-date lock only
	// engages on manual billing updates
	Automated bool
}

// OrderListFilter narrows the role-scoped listing
type OrderListFilter struct {
	Page     int
	PageSize int
	Status   *string
	Search   string
}

// OrderItemResponse is one line in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// OrderResponse is the full order representation
type OrderResponse struct {
	ID                   uuid.UUID           `json:"id"`
	OrderNumber          string              `json:"order_number"`
	CustomerName         string              `json:"customer_name"`
	CustomerPhone        string              `json:"customer_phone,omitempty"`
	CustomerAddress      string              `json:"customer_address,omitempty"`
	CustomerCity         string              `json:"customer_city,omitempty"`
	Status               string              `json:"status"`
	PaymentMethod        string              `json:"payment_method"`
	DeliveryMethod       string              `json:"delivery_method"`
	CarrierCode          string              `json:"carrier_code,omitempty"`
	TotalAmount          decimal.Decimal     `json:"total_amount"`
	Items                []OrderItemResponse `json:"items"`
	AssignedMessengerID  *uuid.UUID          `json:"assigned_messenger_id,omitempty"`
	ShippingDate         *time.Time          `json:"shipping_date,omitempty"`
	CarteraRejected      bool                `json:"cartera_rejected"`
	CarteraNotes         string              `json:"cartera_notes,omitempty"`
	CollectedAmount      decimal.Decimal     `json:"collected_amount"`
	DeliveryFeeCollected decimal.Decimal     `json:"delivery_fee_collected"`
	InvoiceRef           string              `json:"invoice_ref,omitempty"`
	DeliveredAt          *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt          *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	Version              int                 `json:"version"`
}

// ToOrderResponse maps an order aggregate to its response
func ToOrderResponse(o *fulfillment.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:          item.ID,
			Name:        item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
			Description: item.Description,
		}
	}
	return OrderResponse{
		ID:                   o.ID,
		OrderNumber:          o.OrderNumber,
		CustomerName:         o.CustomerName,
		CustomerPhone:        o.CustomerPhone,
		CustomerAddress:      o.CustomerAddress,
		CustomerCity:         o.CustomerCity,
		Status:               o.Status.String(),
		PaymentMethod:        string(o.PaymentMethod),
		DeliveryMethod:       string(o.DeliveryMethod),
		CarrierCode:          o.CarrierCode,
		TotalAmount:          o.TotalAmount,
		Items:                items,
		AssignedMessengerID:  o.AssignedMessengerID,
		ShippingDate:         o.ShippingDate,
		CarteraRejected:      o.CarteraRejected,
		CarteraNotes:         o.CarteraNotes,
		CollectedAmount:      o.CollectedAmount,
		DeliveryFeeCollected: o.DeliveryFeeCollected,
		InvoiceRef:           o.InvoiceRef,
		DeliveredAt:          o.DeliveredAt,
		CancelledAt:          o.CancelledAt,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		Version:              o.Version,
	}
}

// ToOrderResponses maps a slice of orders
func ToOrderResponses(orders []fulfillment.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out
}
