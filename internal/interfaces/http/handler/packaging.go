package handler

import (
	packagingapp "github.com/fulfillment/backend/internal/application/packaging"
	"github.com/fulfillment/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PackagingHandler handles packaging verification API endpoints
type PackagingHandler struct {
	BaseHandler
	verificationService *packagingapp.VerificationService
}

// NewPackagingHandler creates a new PackagingHandler
func NewPackagingHandler(verificationService *packagingapp.VerificationService) *PackagingHandler {
	return &PackagingHandler{verificationService: verificationService}
}

// VerifyItemRequest carries the packer-entered attributes for a line
type VerifyItemRequest struct {
	Weight string `json:"weight" binding:"max=50"`
	Flavor string `json:"flavor" binding:"max=100"`
	Size   string `json:"size" binding:"max=50"`
	Notes  string `json:"notes" binding:"max=1000"`
}

// ScanBarcodeRequest carries one barcode scan
type ScanBarcodeRequest struct {
	Barcode string `json:"barcode" binding:"required,min=1,max=100"`
}

// Checklist returns the packaging checklist for an order
func (h *PackagingHandler) Checklist(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	checklist, err := h.verificationService.Checklist(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, checklist)
}

// VerifyItem manually verifies one order line
func (h *PackagingHandler) VerifyItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req VerifyItemRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	result, err := h.verificationService.VerifyItem(c.Request.Context(), itemID, packagingapp.PackerAttributes{
		Weight: req.Weight,
		Flavor: req.Flavor,
		Size:   req.Size,
		Notes:  req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// VerifyAll verifies every line of an order at once
func (h *PackagingHandler) VerifyAll(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	result, err := h.verificationService.VerifyAll(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ScanBarcode applies one barcode scan against an order
func (h *PackagingHandler) ScanBarcode(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req ScanBarcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.verificationService.ScanBarcode(c.Request.Context(), orderID, req.Barcode)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ScanLog returns the recorded scan history of one order line
func (h *PackagingHandler) ScanLog(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	log, err := h.verificationService.ScanLog(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, log)
}

// Complete closes packaging for an order once every line is verified
func (h *PackagingHandler) Complete(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	result, err := h.verificationService.Complete(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
