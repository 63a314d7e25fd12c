package packaging

import (
	"context"
	"fmt"

	"github.com/fulfillment/backend/internal/domain/catalog"
	"github.com/fulfillment/backend/internal/domain/fulfillment"
	"github.com/fulfillment/backend/internal/domain/packaging"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CompletionListener is notified when every line of an order has been
// verified. The order module registers itself here so the packaging
// engine never mutates order state directly.
type CompletionListener interface {
	OnOrderPacked(ctx context.Context, orderID uuid.UUID) error
}

// VerificationService drives order lines from unverified to verified
// through manual confirmation or barcode scans
type VerificationService struct {
	verificationRepo packaging.VerificationRepository
	orderRepo        fulfillment.OrderRepository
	productRepo      catalog.ProductRepository
	txManager        shared.TransactionManager
	eventPublisher   shared.EventPublisher
	listener         CompletionListener
}

// NewVerificationService creates a new VerificationService
func NewVerificationService(
	verificationRepo packaging.VerificationRepository,
	orderRepo fulfillment.OrderRepository,
	productRepo catalog.ProductRepository,
	txManager shared.TransactionManager,
) *VerificationService {
	return &VerificationService{
		verificationRepo: verificationRepo,
		orderRepo:        orderRepo,
		productRepo:      productRepo,
		txManager:        txManager,
		eventPublisher:   shared.NoopEventPublisher{},
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *VerificationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetCompletionListener registers the order-side completion callback
func (s *VerificationService) SetCompletionListener(listener CompletionListener) {
	s.listener = listener
}

// Checklist returns the per-line verification state of an order
func (s *VerificationService) Checklist(ctx context.Context, orderID uuid.UUID) (*ChecklistResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	verifications, err := s.verificationRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	byItem := make(map[uuid.UUID]*packaging.Verification, len(verifications))
	for idx := range verifications {
		byItem[verifications[idx].OrderItemID] = &verifications[idx]
	}

	resp := &ChecklistResponse{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status.String(),
		Total:       len(order.Items),
		Items:       make([]ChecklistItemResponse, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		v := byItem[item.ID]
		if v != nil && v.IsVerified {
			resp.Verified++
		}
		resp.Items = append(resp.Items, toChecklistItem(item.ID, item.Name, item.Quantity, v))
	}
	return resp, nil
}

// VerifyItem manually confirms a single line, recording any packer
// attributes. Idempotent: confirming a verified line only refreshes the
// attributes.
func (s *VerificationService) VerifyItem(ctx context.Context, itemID uuid.UUID, attrs PackerAttributes) (*VerifyResponse, error) {
	order, err := s.orderRepo.FindByItemID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	item := order.GetItem(itemID)
	if item == nil {
		return nil, shared.ErrNotFound
	}

	verification, err := s.findOrCreate(ctx, order.ID, item.ID, item.Quantity)
	if err != nil {
		return nil, err
	}

	changed := verification.MarkVerified()
	verification.SetPackerAttributes(attrs.Weight, attrs.Flavor, attrs.Size, attrs.Notes)

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.verificationRepo.Save(ctx, verification)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		_ = s.eventPublisher.Publish(ctx, packaging.NewItemVerifiedEvent(verification, true))
	}

	completed, err := s.checkAutoComplete(ctx, order)
	if err != nil {
		return nil, err
	}

	touched := 0
	if changed {
		touched = 1
	}
	return &VerifyResponse{OrderID: order.ID, TouchedLines: touched, OrderCompleted: completed}, nil
}

// VerifyAll manually confirms every line of the order in one pass,
// reporting how many lines were newly verified
func (s *VerificationService) VerifyAll(ctx context.Context, orderID uuid.UUID) (*VerifyResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(order.Items) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Order has no items to verify")
	}

	itemIDs := make([]uuid.UUID, len(order.Items))
	requiredScans := make(map[uuid.UUID]int, len(order.Items))
	for i, item := range order.Items {
		itemIDs[i] = item.ID
		requiredScans[item.ID] = item.Quantity
	}

	var touched int
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		touched, txErr = s.verificationRepo.MarkAllVerified(ctx, orderID, itemIDs, requiredScans)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	completed, err := s.checkAutoComplete(ctx, order)
	if err != nil {
		return nil, err
	}
	return &VerifyResponse{OrderID: orderID, TouchedLines: touched, OrderCompleted: completed}, nil
}

// ScanBarcode resolves a scanned code to an order line and records one
// scan against it. Scanning a line that already reached its required
// scans is an idempotent no-op, not an error.
func (s *VerificationService) ScanBarcode(ctx context.Context, orderID uuid.UUID, barcode string) (*ScanResponse, error) {
	product, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, shared.NewDomainError("NOT_FOUND",
			fmt.Sprintf("No product matches barcode %q", barcode))
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	item := order.FindItemByProductName(product.Name)
	if item == nil {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Product %q is not part of this order", product.Name))
	}

	verification, err := s.findOrCreate(ctx, order.ID, item.ID, item.Quantity)
	if err != nil {
		return nil, err
	}

	var result *packaging.ScanResult
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		result, txErr = s.verificationRepo.IncrementScan(ctx, verification, barcode)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	resp := &ScanResponse{
		OrderItemID:   item.ID,
		ProductName:   product.Name,
		ScannedCount:  result.ScannedCount,
		RequiredScans: result.RequiredScans,
		ItemVerified:  result.NowVerified || result.ScannedCount >= result.RequiredScans,
	}
	if !result.Applied {
		resp.AlreadyVerified = true
		return resp, nil
	}

	if result.NowVerified {
		verification.ScannedCount = result.ScannedCount
		_ = s.eventPublisher.Publish(ctx, packaging.NewItemVerifiedEvent(verification, false))
	}

	completed, err := s.checkAutoComplete(ctx, order)
	if err != nil {
		return nil, err
	}
	resp.OrderCompleted = completed
	return resp, nil
}

// ScanLog returns the recorded scan history of one order line in scan
// order. Scan events are append-only audit rows, so the log survives a
// checklist reset.
func (s *VerificationService) ScanLog(ctx context.Context, itemID uuid.UUID) (*ScanLogResponse, error) {
	order, err := s.orderRepo.FindByItemID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	item := order.GetItem(itemID)
	if item == nil {
		return nil, shared.ErrNotFound
	}

	events, err := s.verificationRepo.ScanEventsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	resp := &ScanLogResponse{
		OrderID:     order.ID,
		OrderItemID: itemID,
		ItemName:    item.Name,
		Total:       len(events),
		Scans:       make([]ScanEventResponse, len(events)),
	}
	for i, e := range events {
		resp.Scans[i] = ScanEventResponse{
			Barcode:   e.Barcode,
			Sequence:  e.Sequence,
			ScannedAt: e.CreatedAt,
		}
	}
	return resp, nil
}

// Complete finalizes packaging for an order, failing with the verified
// and total counts while any line is incomplete
func (s *VerificationService) Complete(ctx context.Context, orderID uuid.UUID) (*CompleteResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	verified, total, err := s.countVerified(ctx, order)
	if err != nil {
		return nil, err
	}
	if total == 0 || verified < total {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Packaging incomplete: %d of %d items verified", verified, total))
	}

	if err := s.notifyPacked(ctx, order); err != nil {
		return nil, err
	}
	return &CompleteResponse{OrderID: orderID, Verified: verified, Total: total}, nil
}

func (s *VerificationService) findOrCreate(ctx context.Context, orderID, itemID uuid.UUID, quantity int) (*packaging.Verification, error) {
	verification, err := s.verificationRepo.FindByOrderItem(ctx, itemID)
	if err == nil {
		return verification, nil
	}
	if err != shared.ErrNotFound {
		return nil, err
	}
	return packaging.NewVerification(orderID, itemID, quantity)
}

func (s *VerificationService) countVerified(ctx context.Context, order *fulfillment.Order) (int, int, error) {
	itemIDs := make([]uuid.UUID, len(order.Items))
	for i, item := range order.Items {
		itemIDs[i] = item.ID
	}
	return s.verificationRepo.CountVerified(ctx, order.ID, itemIDs)
}

// checkAutoComplete re-runs the completion check after every mutation.
// The last unit can arrive through a scan, a single confirm or a bulk
// confirm, so no single entry point owns completion.
func (s *VerificationService) checkAutoComplete(ctx context.Context, order *fulfillment.Order) (bool, error) {
	verified, total, err := s.countVerified(ctx, order)
	if err != nil {
		return false, err
	}
	if total == 0 || verified < total {
		return false, nil
	}
	if !order.Status.IsPackagingStage() {
		return false, nil
	}
	if err := s.notifyPacked(ctx, order); err != nil {
		return false, err
	}
	return true, nil
}

func (s *VerificationService) notifyPacked(ctx context.Context, order *fulfillment.Order) error {
	if s.listener != nil {
		if err := s.listener.OnOrderPacked(ctx, order.ID); err != nil {
			return err
		}
	}
	_ = s.eventPublisher.Publish(ctx, packaging.NewOrderPackedEvent(order.ID))
	return nil
}
