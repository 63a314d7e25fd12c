package handler

import (
	"time"

	treasuryapp "github.com/fulfillment/backend/internal/application/treasury"
	"github.com/fulfillment/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TreasuryHandler handles cash reconciliation API endpoints
type TreasuryHandler struct {
	BaseHandler
	reconciliationService *treasuryapp.ReconciliationService
}

// NewTreasuryHandler creates a new TreasuryHandler
func NewTreasuryHandler(reconciliationService *treasuryapp.ReconciliationService) *TreasuryHandler {
	return &TreasuryHandler{reconciliationService: reconciliationService}
}

// AcceptEntryRequest carries the optional declared amount for a
// warehouse entry acceptance
type AcceptEntryRequest struct {
	Amount *float64 `json:"amount" binding:"omitempty,gte=0"`
}

// DeclareCollectionRequest declares the cash a courier collected for one
// delivered order
type DeclareCollectionRequest struct {
	OrderID        string   `json:"order_id" binding:"required,uuid"`
	DeclaredAmount *float64 `json:"declared_amount" binding:"omitempty,gte=0"`
}

// AcceptCollectionRequest accepts one declared courier collection
type AcceptCollectionRequest struct {
	OrderID string `json:"order_id" binding:"required,uuid"`
}

// Pending returns all cash still owed to cartera
func (h *TreasuryHandler) Pending(c *gin.Context) {
	pending, err := h.reconciliationService.Pending(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pending)
}

// Handovers lists courier acts and synthesized warehouse days
func (h *TreasuryHandler) Handovers(c *gin.Context) {
	handovers, err := h.reconciliationService.Handovers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, handovers)
}

// AcceptEntry accepts one pending warehouse cash entry
func (h *TreasuryHandler) AcceptEntry(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c, "Missing authenticated user")
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entry ID format")
		return
	}

	var req AcceptEntryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	appReq := treasuryapp.AcceptEntryRequest{}
	if req.Amount != nil {
		d := decimal.NewFromFloat(*req.Amount)
		appReq.Amount = &d
	}

	result, err := h.reconciliationService.AcceptWarehouseEntry(c.Request.Context(), entryID, userID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// DeclareCollection registers the courier-declared cash for one order
// as a pending line, opening the courier's daily act when needed
func (h *TreasuryHandler) DeclareCollection(c *gin.Context) {
	var req DeclareCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	appReq := treasuryapp.DeclareCollectionRequest{OrderID: orderID}
	if req.DeclaredAmount != nil {
		d := decimal.NewFromFloat(*req.DeclaredAmount)
		appReq.DeclaredAmount = &d
	}

	view, err := h.reconciliationService.DeclareCourierCollection(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}

// AcceptCollection stamps a declared courier collection as collected
func (h *TreasuryHandler) AcceptCollection(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c, "Missing authenticated user")
		return
	}

	var req AcceptCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	view, err := h.reconciliationService.AcceptCourierCollection(c.Request.Context(), userID, treasuryapp.AcceptCollectionRequest{OrderID: orderID})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}

// CloseAct closes a courier handover act
func (h *TreasuryHandler) CloseAct(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c, "Missing authenticated user")
		return
	}

	actID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid act ID format")
		return
	}

	result, err := h.reconciliationService.CloseAct(c.Request.Context(), actID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ActReceipt renders the printable receipt for a courier act
func (h *TreasuryHandler) ActReceipt(c *gin.Context) {
	actID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid act ID format")
		return
	}

	receipt, err := h.reconciliationService.ActReceipt(c.Request.Context(), actID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

// WarehouseReceipt renders the printable receipt for one consolidated
// warehouse day (date in YYYY-MM-DD)
func (h *TreasuryHandler) WarehouseReceipt(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		h.BadRequest(c, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	receipt, err := h.reconciliationService.WarehouseReceipt(c.Request.Context(), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}
