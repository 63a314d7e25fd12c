package handler

import (
	"time"

	fulfillmentapp "github.com/fulfillment/backend/internal/application/fulfillment"
	"github.com/fulfillment/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderHandler handles order-related API endpoints
type OrderHandler struct {
	BaseHandler
	orderService *fulfillmentapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *fulfillmentapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrderItemInput represents an item in the create order request
type CreateOrderItemInput struct {
	Name        string  `json:"name" binding:"required,min=1,max=200"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" binding:"required,gt=0"`
	Description string  `json:"description"`
}

// CreateOrderRequest represents a request to create a new order
type CreateOrderRequest struct {
	CustomerName    string                 `json:"customer_name" binding:"required,min=1,max=200"`
	CustomerPhone   string                 `json:"customer_phone" binding:"max=50"`
	CustomerAddress string                 `json:"customer_address" binding:"max=500"`
	CustomerCity    string                 `json:"customer_city" binding:"max=100"`
	DeliveryMethod  string                 `json:"delivery_method" binding:"required,delivery_method"`
	PaymentMethod   string                 `json:"payment_method" binding:"required"`
	ShippingDate    *time.Time             `json:"shipping_date"`
	Items           []CreateOrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderRequest represents a role-gated order mutation. Absent
// fields are left untouched.
type UpdateOrderRequest struct {
	Status               *string                `json:"status" binding:"omitempty,order_status"`
	CustomerPhone        *string                `json:"customer_phone"`
	CustomerAddress      *string                `json:"customer_address"`
	CustomerCity         *string                `json:"customer_city"`
	DeliveryMethod       *string                `json:"delivery_method" binding:"omitempty,delivery_method"`
	ShippingDate         *time.Time             `json:"shipping_date"`
	AssignedMessengerID  *string                `json:"assigned_messenger_id"`
	Items                []CreateOrderItemInput `json:"items" binding:"omitempty,dive"`
	CarteraRejected      bool                   `json:"cartera_rejected"`
	CarteraNotes         string                 `json:"cartera_notes"`
	PaymentCollected     *float64               `json:"payment_collected"`
	DeliveryFeeCollected *float64               `json:"delivery_fee_collected"`
}

// DeleteOrderRequest carries the reason for a soft delete
type DeleteOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ListOrdersRequest represents order listing query parameters
type ListOrdersRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status"`
	Search   string `form:"search"`
}

// Create creates a new order
func (h *OrderHandler) Create(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Missing authenticated user")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	appReq := fulfillmentapp.CreateOrderRequest{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		CustomerCity:    req.CustomerCity,
		DeliveryMethod:  req.DeliveryMethod,
		PaymentMethod:   req.PaymentMethod,
		ShippingDate:    req.ShippingDate,
		Items:           toAppItems(req.Items),
	}

	order, err := h.orderService.Create(c.Request.Context(), actor, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// GetByID retrieves an order by ID
func (h *OrderHandler) GetByID(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Missing authenticated user")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// GetByOrderNumber retrieves an order by its order number
func (h *OrderHandler) GetByOrderNumber(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Missing authenticated user")
		return
	}

	order, err := h.orderService.GetByOrderNumber(c.Request.Context(), actor, c.Param("order_number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// List returns the role-scoped order listing
func (h *OrderHandler) List(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Missing authenticated user")
		return
	}

	req := ListOrdersRequest{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	filter := fulfillmentapp.OrderListFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Search:   req.Search,
	}
	if req.Status != "" {
		filter.Status = &req.Status
	}

	orders, total, err := h.orderService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, req.Page, req.PageSize)
}

// Update applies a role-gated mutation to an order
func (h *OrderHandler) Update(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Missing authenticated user")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	appReq := fulfillmentapp.UpdateOrderRequest{
		Status:          req.Status,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		CustomerCity:    req.CustomerCity,
		DeliveryMethod:  req.DeliveryMethod,
		ShippingDate:    req.ShippingDate,
		CarteraRejected: req.CarteraRejected,
		CarteraNotes:    req.CarteraNotes,
	}

	if req.AssignedMessengerID != nil {
		messengerID, err := uuid.Parse(*req.AssignedMessengerID)
		if err != nil {
			h.BadRequest(c, "Invalid messenger ID format")
			return
		}
		appReq.AssignedMessengerID = &messengerID
	}
	if len(req.Items) > 0 {
		appReq.Items = toAppItems(req.Items)
	}
	if req.PaymentCollected != nil {
		d := decimal.NewFromFloat(*req.PaymentCollected)
		appReq.PaymentCollected = &d
	}
	if req.DeliveryFeeCollected != nil {
		d := decimal.NewFromFloat(*req.DeliveryFeeCollected)
		appReq.DeliveryFeeCollected = &d
	}

	order, err := h.orderService.Update(c.Request.Context(), actor, orderID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Delete soft-deletes an order, leaving an audit entry behind
func (h *OrderHandler) Delete(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Missing authenticated user")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req DeleteOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	if err := h.orderService.SoftDelete(c.Request.Context(), actor, orderID, req.Reason); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func toAppItems(items []CreateOrderItemInput) []fulfillmentapp.CreateOrderItemInput {
	appItems := make([]fulfillmentapp.CreateOrderItemInput, len(items))
	for i, item := range items {
		appItems[i] = fulfillmentapp.CreateOrderItemInput{
			Name:        item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   decimal.NewFromFloat(item.UnitPrice),
			Description: item.Description,
		}
	}
	return appItems
}
