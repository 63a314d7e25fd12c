package fulfillment

import (
	"context"
	"fmt"

	"github.com/fulfillment/backend/internal/domain/fulfillment"
	"github.com/fulfillment/backend/internal/domain/packaging"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/treasury"
	"github.com/google/uuid"
)

// OrderService handles order fulfillment business operations
type OrderService struct {
	orderRepo        fulfillment.OrderRepository
	cashRepo         treasury.CashEntryRepository
	verificationRepo packaging.VerificationRepository
	txManager        shared.TransactionManager
	eventPublisher   shared.EventPublisher
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo fulfillment.OrderRepository,
	cashRepo treasury.CashEntryRepository,
	verificationRepo packaging.VerificationRepository,
	txManager shared.TransactionManager,
) *OrderService {
	return &OrderService{
		orderRepo:        orderRepo,
		cashRepo:         cashRepo,
		verificationRepo: verificationRepo,
		txManager:        txManager,
		eventPublisher:   shared.NoopEventPublisher{},
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates an order. The initial status is derived from the
// delivery/payment combination, and pickup orders paid in cash get their
// warehouse cash ledger entry in the same transaction.
func (s *OrderService) Create(ctx context.Context, actor Actor, req CreateOrderRequest) (*OrderResponse, error) {
	if !actor.Role.CanManageOrders() {
		return nil, shared.ErrPermissionDenied
	}

	delivery, ok := fulfillment.NormalizeDeliveryMethod(req.DeliveryMethod)
	if !ok {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("%q is not a valid delivery method", req.DeliveryMethod))
	}
	payment := fulfillment.PaymentMethod(req.PaymentMethod)

	orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	order, err := fulfillment.NewOrder(orderNumber, req.CustomerName, delivery, payment)
	if err != nil {
		return nil, err
	}
	order.CustomerPhone = req.CustomerPhone
	order.CustomerAddress = req.CustomerAddress
	order.CustomerCity = req.CustomerCity

	for _, item := range req.Items {
		if _, err := order.AddItem(item.Name, item.Quantity, item.UnitPrice, item.Description); err != nil {
			return nil, err
		}
	}
	if len(order.Items) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "An order needs at least one item")
	}

	if req.ShippingDate != nil {
		order.SetShippingDate(actor.Role, *req.ShippingDate, false)
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.orderRepo.Save(ctx, order); err != nil {
			return err
		}
		return s.ensureWarehouseCashEntry(ctx, order, actor)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// GetByID retrieves an order by ID
func (s *OrderService) GetByID(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(actor, order); err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// GetByOrderNumber retrieves an order by its order number
func (s *OrderService) GetByOrderNumber(ctx context.Context, actor Actor, orderNumber string) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(actor, order); err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List retrieves a role-scoped page of orders. Couriers only see orders
// assigned to them; packers only see the packaging queue.
func (s *OrderService) List(ctx context.Context, actor Actor, filter OrderListFilter) ([]OrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	repoFilter := shared.DefaultFilter()
	repoFilter.Page = filter.Page
	repoFilter.PageSize = filter.PageSize
	repoFilter.Search = filter.Search
	repoFilter.OrderBy = "created_at"
	repoFilter.OrderDir = "desc"

	if filter.Status != nil {
		status, ok := fulfillment.NormalizeStatus(*filter.Status)
		if !ok {
			return nil, 0, shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("%q is not a valid order status", *filter.Status))
		}
		repoFilter.Filters["status"] = status.String()
	}

	switch actor.Role {
	case fulfillment.RoleMensajero:
		repoFilter.Filters["assigned_messenger_id"] = actor.ID.String()
	case fulfillment.RoleEmpaque:
		if filter.Status == nil {
			repoFilter.Filters["status_in"] = []string{
				fulfillment.StatusPendienteEmpaque.String(),
				fulfillment.StatusEnEmpaque.String(),
			}
		}
	}

	orders, err := s.orderRepo.FindAll(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToOrderResponses(orders), total, nil
}

// Update applies a role-gated mutation to an order. Status changes run
// through the transition table; entering logistics records the warehouse
// cash ledger entry when the order requires one.
func (s *OrderService) Update(ctx context.Context, actor Actor, orderID uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.applyFieldUpdates(order, actor, req); err != nil {
		return nil, err
	}

	if len(req.Items) > 0 {
		if err := s.replaceItems(order, actor, req.Items); err != nil {
			return nil, err
		}
	}

	if req.Status != nil {
		if err := s.applyTransition(order, actor, *req.Status, req); err != nil {
			return nil, err
		}
	}

	if req.CarteraRejected {
		if actor.Role != fulfillment.RoleCartera && !actor.Role.CanManageOrders() {
			return nil, shared.ErrPermissionDenied
		}
		if err := order.RejectByCartera(req.CarteraNotes); err != nil {
			return nil, err
		}
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
			return err
		}
		if len(req.Items) > 0 {
			if err := s.verificationRepo.ResetForOrder(ctx, order.ID); err != nil {
				return err
			}
		}
		if order.Status == fulfillment.StatusEnLogistica {
			if err := s.ensureWarehouseCashEntry(ctx, order, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// SoftDelete marks an order deleted and records the audit entry
func (s *OrderService) SoftDelete(ctx context.Context, actor Actor, orderID uuid.UUID, reason string) error {
	if !actor.Role.CanManageOrders() {
		return shared.ErrPermissionDenied
	}
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	audit := fulfillment.NewOrderAuditEntry(order, fulfillment.AuditActionDelete, actor.ID, actor.Role, reason)
	if err := s.orderRepo.SoftDelete(ctx, orderID, audit); err != nil {
		return err
	}

	event := fulfillment.NewOrderDeletedEvent(order, actor.ID, reason)
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		return err
	}
	return nil
}

// OnOrderPacked moves a fully verified order out of the packaging queue.
// Called by the verification flow once every line is complete.
func (s *OrderService) OnOrderPacked(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.Status.IsPackagingStage() {
		return nil
	}
	if err := order.TransitionTo(fulfillment.StatusListoParaEntrega); err != nil {
		return err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return err
	}
	s.publishEvents(ctx, order)
	return nil
}

func (s *OrderService) applyFieldUpdates(order *fulfillment.Order, actor Actor, req UpdateOrderRequest) error {
	if req.CustomerPhone != nil {
		order.CustomerPhone = *req.CustomerPhone
	}
	if req.CustomerAddress != nil {
		order.CustomerAddress = *req.CustomerAddress
	}
	if req.CustomerCity != nil {
		order.CustomerCity = *req.CustomerCity
	}
	if req.DeliveryMethod != nil {
		delivery, ok := fulfillment.NormalizeDeliveryMethod(*req.DeliveryMethod)
		if !ok {
			return shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("%q is not a valid delivery method", *req.DeliveryMethod))
		}
		order.SetDeliveryMethod(delivery)
	}
	if req.ShippingDate != nil {
		order.SetShippingDate(actor.Role, *req.ShippingDate, req.Automated)
	}
	if req.AssignedMessengerID != nil {
		order.AssignMessenger(*req.AssignedMessengerID)
	}
	return nil
}

func (s *OrderService) replaceItems(order *fulfillment.Order, actor Actor, inputs []CreateOrderItemInput) error {
	if !actor.Role.CanManageOrders() {
		return shared.ErrPermissionDenied
	}
	items := make([]fulfillment.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		item, err := fulfillment.NewOrderItem(order.ID, in.Name, in.Quantity, in.UnitPrice, in.Description)
		if err != nil {
			return err
		}
		items = append(items, *item)
	}
	return order.ReplaceItems(items)
}

func (s *OrderService) applyTransition(order *fulfillment.Order, actor Actor, rawStatus string, req UpdateOrderRequest) error {
	requested, ok := fulfillment.NormalizeStatus(rawStatus)
	if !ok {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("%q is not a valid order status", rawStatus))
	}

	target, err := fulfillment.AuthorizeTransition(actor.Role, order.Status, requested)
	if err != nil {
		return err
	}

	if actor.Role == fulfillment.RoleMensajero && target.IsDelivered() {
		payment := order.TotalAmount
		if req.PaymentCollected != nil {
			payment = *req.PaymentCollected
		}
		if req.DeliveryFeeCollected != nil {
			if err := order.RecordDeliveryCollection(payment, *req.DeliveryFeeCollected); err != nil {
				return err
			}
		} else if req.PaymentCollected != nil {
			if err := order.RecordDeliveryCollection(payment, order.DeliveryFeeCollected); err != nil {
				return err
			}
		}
	}

	return order.TransitionTo(target)
}

// ensureWarehouseCashEntry records the cash received at warehouse pickup
// exactly once per order. Re-entering logistics never duplicates the
// row; it reprices a still pending one when the order total changed.
func (s *OrderService) ensureWarehouseCashEntry(ctx context.Context, order *fulfillment.Order, actor Actor) error {
	if order.Status != fulfillment.StatusEnLogistica || !order.RequiresWarehouseCashEntry() {
		return nil
	}
	entry, err := treasury.NewWarehouseCashEntry(
		order.ID,
		order.OrderNumber,
		order.TotalAmount,
		string(order.PaymentMethod),
		string(order.DeliveryMethod),
		actor.ID,
	)
	if err != nil {
		return err
	}
	created, err := s.cashRepo.CreateIfAbsent(ctx, entry)
	if err != nil {
		return err
	}
	if !created {
		existing, err := s.cashRepo.FindWarehouseEntryByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		changed, err := existing.Reprice(order.TotalAmount)
		if err != nil {
			return err
		}
		if changed {
			return s.cashRepo.Save(ctx, existing)
		}
		return nil
	}
	if err := s.eventPublisher.Publish(ctx, treasury.NewCashRegisteredEvent(entry)); err != nil {
		return err
	}
	return nil
}

func (s *OrderService) authorizeRead(actor Actor, order *fulfillment.Order) error {
	if actor.Role == fulfillment.RoleMensajero {
		if order.AssignedMessengerID == nil || *order.AssignedMessengerID != actor.ID {
			return shared.ErrPermissionDenied
		}
	}
	return nil
}

func (s *OrderService) publishEvents(ctx context.Context, order *fulfillment.Order) {
	for _, event := range order.GetDomainEvents() {
		// best effort, handlers log their own failures
		_ = s.eventPublisher.Publish(ctx, event)
	}
	order.ClearDomainEvents()
}
