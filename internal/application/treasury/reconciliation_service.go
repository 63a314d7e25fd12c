package treasury

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fulfillment/backend/internal/domain/fulfillment"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/treasury"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PendingLimit caps the pending union listing
const PendingLimit = 100

// ReconciliationService answers what cash is still owed and drives the
// handover closing flow
type ReconciliationService struct {
	cashRepo       treasury.CashEntryRepository
	handoverRepo   treasury.HandoverRepository
	orderRepo      fulfillment.OrderRepository
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	cashRepo treasury.CashEntryRepository,
	handoverRepo treasury.HandoverRepository,
	orderRepo fulfillment.OrderRepository,
	txManager shared.TransactionManager,
) *ReconciliationService {
	return &ReconciliationService{
		cashRepo:       cashRepo,
		handoverRepo:   handoverRepo,
		orderRepo:      orderRepo,
		txManager:      txManager,
		eventPublisher: shared.NoopEventPublisher{},
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ReconciliationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Pending returns the union of courier collections and warehouse entries
// not yet collected, newest collection first, capped at PendingLimit
func (s *ReconciliationService) Pending(ctx context.Context) (*PendingResponse, error) {
	courier, err := s.handoverRepo.PendingCourierCollections(ctx, PendingLimit)
	if err != nil {
		return nil, err
	}
	warehouse, err := s.cashRepo.FindPendingWarehouse(ctx, PendingLimit)
	if err != nil {
		return nil, err
	}

	items := make([]treasury.PendingCashItem, 0, len(courier)+len(warehouse))
	items = append(items, courier...)
	for i := range warehouse {
		e := warehouse[i]
		entryID := e.ID
		items = append(items, treasury.PendingCashItem{
			Kind:        treasury.ActKindWarehouse,
			OrderID:     e.OrderID,
			OrderNumber: e.OrderNumber,
			EntryID:     &entryID,
			Amount:      e.Amount,
			DeliveryFee: decimal.Zero,
			CollectedAt: e.RegisteredAt,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CollectedAt.After(items[j].CollectedAt)
	})
	if len(items) > PendingLimit {
		items = items[:PendingLimit]
	}

	return &PendingResponse{Items: items, Total: len(items)}, nil
}

// Handovers lists persisted courier acts unioned with the synthesized
// per-day warehouse consolidations, newest first
func (s *ReconciliationService) Handovers(ctx context.Context) ([]treasury.HandoverView, error) {
	acts, err := s.handoverRepo.FindActs(ctx)
	if err != nil {
		return nil, err
	}
	days, err := s.cashRepo.AcceptedWarehouseDays(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]treasury.HandoverView, 0, len(acts)+len(days))
	for i := range acts {
		views = append(views, treasury.ViewOfAct(&acts[i]))
	}
	for _, day := range days {
		views = append(views, treasury.ViewOfConsolidation(day))
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].Date.After(views[j].Date)
	})
	return views, nil
}

// AcceptWarehouseEntry moves a warehouse ledger entry to collected.
// Accepting an already collected entry is a no-op success.
func (s *ReconciliationService) AcceptWarehouseEntry(ctx context.Context, entryID, acceptedBy uuid.UUID, req AcceptEntryRequest) (*AcceptEntryResponse, error) {
	entry, err := s.cashRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	changed, err := entry.Accept(acceptedBy, req.Amount)
	if err != nil {
		return nil, err
	}
	if changed {
		err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
			return s.cashRepo.Save(ctx, entry)
		})
		if err != nil {
			return nil, err
		}
		_ = s.eventPublisher.Publish(ctx, treasury.NewCashAcceptedEvent(entry))
	}

	return &AcceptEntryResponse{
		EntryID:        entry.ID,
		OrderNumber:    entry.OrderNumber,
		Status:         string(entry.Status),
		AcceptedAmount: entry.AcceptedAmount,
		AlreadyDone:    !changed,
	}, nil
}

// DeclareCourierCollection records one delivered order's cash as a
// pending detail on the courier's open act for today, opening the act
// if none exists. The money stays owed until cartera accepts the line.
func (s *ReconciliationService) DeclareCourierCollection(ctx context.Context, req DeclareCollectionRequest) (*treasury.HandoverView, error) {
	order, err := s.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.AssignedMessengerID == nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Order has no assigned courier")
	}
	if !order.Status.IsDelivered() {
		return nil, shared.NewDomainError("INVALID_STATE", "Only delivered orders can be handed over")
	}

	expected := order.CollectedAmount.Add(order.DeliveryFeeCollected)
	declared := expected
	if req.DeclaredAmount != nil {
		declared = *req.DeclaredAmount
	}

	closingDate := dayOf(time.Now())
	act, err := s.handoverRepo.FindOpenActForMessenger(ctx, *order.AssignedMessengerID, closingDate)
	if err == shared.ErrNotFound {
		act = treasury.NewHandoverAct(*order.AssignedMessengerID, closingDate)
	} else if err != nil {
		return nil, err
	}

	if _, err := act.AddDetail(order.ID, order.OrderNumber, expected, declared); err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.handoverRepo.SaveWithLock(ctx, act)
	})
	if err != nil {
		return nil, err
	}

	view := treasury.ViewOfAct(act)
	return &view, nil
}

// AcceptCourierCollection stamps a previously declared detail as
// collected. Accepting before the courier declared the order is a
// not-found error, accepting twice is a no-op success.
func (s *ReconciliationService) AcceptCourierCollection(ctx context.Context, acceptedBy uuid.UUID, req AcceptCollectionRequest) (*treasury.HandoverView, error) {
	act, err := s.handoverRepo.FindOpenActByOrder(ctx, req.OrderID)
	if err == shared.ErrNotFound {
		return nil, shared.NewDomainError("NOT_FOUND", "Order has no declared collection on an open handover act")
	} else if err != nil {
		return nil, err
	}

	_, changed, err := act.AcceptDetail(req.OrderID, acceptedBy)
	if err != nil {
		return nil, err
	}

	if changed {
		err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
			return s.handoverRepo.SaveWithLock(ctx, act)
		})
		if err != nil {
			return nil, err
		}
	}

	view := treasury.ViewOfAct(act)
	return &view, nil
}

// CloseAct finalizes a courier act, stamping the approver. The outcome
// is completed when every detail was collected, discrepancy otherwise.
func (s *ReconciliationService) CloseAct(ctx context.Context, actID, approvedBy uuid.UUID) (*CloseActResponse, error) {
	act, err := s.handoverRepo.FindActByID(ctx, actID)
	if err != nil {
		return nil, err
	}

	if err := act.Close(approvedBy); err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.handoverRepo.SaveWithLock(ctx, act)
	})
	if err != nil {
		return nil, err
	}

	for _, event := range act.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	act.ClearDomainEvents()

	return &CloseActResponse{
		ActID:          act.ID,
		Status:         string(act.Status),
		ExpectedAmount: act.ExpectedAmount,
		DeclaredAmount: act.DeclaredAmount,
		Difference:     act.Difference,
		TotalCount:     len(act.Details),
		CollectedCount: act.CollectedCount(),
	}, nil
}

// ActReceipt renders the reconciliation summary of a persisted courier act
func (s *ReconciliationService) ActReceipt(ctx context.Context, actID uuid.UUID) (*ReceiptResponse, error) {
	act, err := s.handoverRepo.FindActByID(ctx, actID)
	if err != nil {
		return nil, err
	}
	view := treasury.ViewOfAct(act)
	return &ReceiptResponse{
		View:    view,
		Details: toDetailResponses(act.Details),
		Summary: renderSummary(view),
	}, nil
}

// WarehouseReceipt renders the synthesized consolidation of one day's
// accepted warehouse entries. No close step exists for warehouse days.
func (s *ReconciliationService) WarehouseReceipt(ctx context.Context, date time.Time) (*ReceiptResponse, error) {
	entries, err := s.cashRepo.FindAcceptedWarehouseByDate(ctx, dayOf(date))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, shared.NewDomainError("NOT_FOUND",
			fmt.Sprintf("No accepted warehouse entries on %s", date.Format("2006-01-02")))
	}

	consolidation := treasury.DailyConsolidation{Date: dayOf(date)}
	details := make([]HandoverDetailResponse, 0, len(entries))
	for _, e := range entries {
		consolidation.ExpectedAmount = consolidation.ExpectedAmount.Add(e.Amount)
		consolidation.DeclaredAmount = consolidation.DeclaredAmount.Add(e.AcceptedAmount)
		consolidation.TotalCount++
		consolidation.CollectedCount++
		details = append(details, HandoverDetailResponse{
			OrderID:        e.OrderID,
			OrderNumber:    e.OrderNumber,
			ExpectedAmount: e.Amount,
			DeclaredAmount: e.AcceptedAmount,
			Status:         string(e.Status),
			AcceptedAt:     e.AcceptedAt,
		})
	}

	view := treasury.ViewOfConsolidation(consolidation)
	return &ReceiptResponse{
		View:    view,
		Details: details,
		Summary: renderSummary(view),
	}, nil
}

func renderSummary(v treasury.HandoverView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Acta %s (%s)\n", v.Key, v.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Estado: %s\n", v.Status)
	fmt.Fprintf(&b, "Ordenes: %d recaudadas de %d\n", v.CollectedCount, v.TotalCount)
	fmt.Fprintf(&b, "Esperado: %s  Declarado: %s  Diferencia: %s",
		v.ExpectedAmount.StringFixed(2),
		v.DeclaredAmount.StringFixed(2),
		v.DeclaredAmount.Sub(v.ExpectedAmount).StringFixed(2))
	return b.String()
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
