package fulfillment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fulfillment/backend/internal/domain/fulfillment"
	"github.com/fulfillment/backend/internal/domain/packaging"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/treasury"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher collects published events for assertions
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*fulfillment.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByItemID(ctx context.Context, itemID uuid.UUID) (*fulfillment.Order, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]fulfillment.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fulfillment.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *fulfillment.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, order *fulfillment.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) SoftDelete(ctx context.Context, id uuid.UUID, audit *fulfillment.OrderAuditEntry) error {
	args := m.Called(ctx, id, audit)
	return args.Error(0)
}

func (m *MockOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockCashEntryRepository is a mock implementation of treasury.CashEntryRepository
type MockCashEntryRepository struct {
	mock.Mock
}

func (m *MockCashEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*treasury.CashEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*treasury.CashEntry), args.Error(1)
}

func (m *MockCashEntryRepository) FindWarehouseEntryByOrder(ctx context.Context, orderID uuid.UUID) (*treasury.CashEntry, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*treasury.CashEntry), args.Error(1)
}

func (m *MockCashEntryRepository) CreateIfAbsent(ctx context.Context, entry *treasury.CashEntry) (bool, error) {
	args := m.Called(ctx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *MockCashEntryRepository) Save(ctx context.Context, entry *treasury.CashEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockCashEntryRepository) FindPendingWarehouse(ctx context.Context, limit int) ([]treasury.CashEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]treasury.CashEntry), args.Error(1)
}

func (m *MockCashEntryRepository) FindAcceptedWarehouseByDate(ctx context.Context, date time.Time) ([]treasury.CashEntry, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]treasury.CashEntry), args.Error(1)
}

func (m *MockCashEntryRepository) AcceptedWarehouseDays(ctx context.Context) ([]treasury.DailyConsolidation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]treasury.DailyConsolidation), args.Error(1)
}

// MockVerificationRepository is a mock implementation of packaging.VerificationRepository
type MockVerificationRepository struct {
	mock.Mock
}

func (m *MockVerificationRepository) FindByOrderItem(ctx context.Context, orderItemID uuid.UUID) (*packaging.Verification, error) {
	args := m.Called(ctx, orderItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*packaging.Verification), args.Error(1)
}

func (m *MockVerificationRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]packaging.Verification, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]packaging.Verification), args.Error(1)
}

func (m *MockVerificationRepository) Save(ctx context.Context, v *packaging.Verification) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVerificationRepository) IncrementScan(ctx context.Context, v *packaging.Verification, barcode string) (*packaging.ScanResult, error) {
	args := m.Called(ctx, v, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*packaging.ScanResult), args.Error(1)
}

func (m *MockVerificationRepository) MarkAllVerified(ctx context.Context, orderID uuid.UUID, orderItemIDs []uuid.UUID, requiredScans map[uuid.UUID]int) (int, error) {
	args := m.Called(ctx, orderID, orderItemIDs, requiredScans)
	return args.Int(0), args.Error(1)
}

func (m *MockVerificationRepository) CountVerified(ctx context.Context, orderID uuid.UUID, orderItemIDs []uuid.UUID) (int, int, error) {
	args := m.Called(ctx, orderID, orderItemIDs)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockVerificationRepository) ScanEventsByItem(ctx context.Context, orderItemID uuid.UUID) ([]packaging.ScanEvent, error) {
	args := m.Called(ctx, orderItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]packaging.ScanEvent), args.Error(1)
}

func (m *MockVerificationRepository) ResetForOrder(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func newTestService() (*OrderService, *MockOrderRepository, *MockCashEntryRepository, *MockVerificationRepository, *MockEventPublisher) {
	orderRepo := new(MockOrderRepository)
	cashRepo := new(MockCashEntryRepository)
	verificationRepo := new(MockVerificationRepository)
	publisher := NewMockEventPublisher()
	service := NewOrderService(orderRepo, cashRepo, verificationRepo, shared.NoopTransactionManager{})
	service.SetEventPublisher(publisher)
	return service, orderRepo, cashRepo, verificationRepo, publisher
}

func billingActor() Actor {
	return Actor{ID: uuid.New(), Role: fulfillment.RoleFacturacion}
}

func basicCreateReq(delivery, payment string) CreateOrderRequest {
	return CreateOrderRequest{
		CustomerName:   "Ana Torres",
		DeliveryMethod: delivery,
		PaymentMethod:  payment,
		Items: []CreateOrderItemInput{
			{Name: "Cafe 500g", Quantity: 2, UnitPrice: decimal.NewFromInt(25000)},
		},
	}
}

func TestOrderService_Create_InitialStatus(t *testing.T) {
	tests := []struct {
		name     string
		delivery string
		payment  string
		want     fulfillment.OrderStatus
	}{
		{"pickup with transfer goes to wallet review", "recoge_bodega", "transferencia", fulfillment.StatusRevisionCartera},
		{"local delivery cash skips review", "domicilio", "efectivo", fulfillment.StatusEnLogistica},
		{"carrier shipment starts at billing", "transportadora", "efectivo", fulfillment.StatusPendienteFacturacion},
		{"pickup cash starts at billing", "recoge_bodega", "efectivo", fulfillment.StatusPendienteFacturacion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, orderRepo, cashRepo, _, _ := newTestService()
			orderRepo.On("GenerateOrderNumber", mock.Anything).Return("ORD-2026-0001", nil)
			orderRepo.On("Save", mock.Anything, mock.AnythingOfType("*fulfillment.Order")).Return(nil)
			cashRepo.On("CreateIfAbsent", mock.Anything, mock.AnythingOfType("*treasury.CashEntry")).Return(true, nil).Maybe()

			resp, err := service.Create(context.Background(), billingActor(), basicCreateReq(tt.delivery, tt.payment))

			require.NoError(t, err)
			assert.Equal(t, tt.want.String(), resp.Status)
		})
	}
}

func TestOrderService_Create_LocalDeliveryGetsFixedCarrier(t *testing.T) {
	service, orderRepo, _, _, _ := newTestService()
	orderRepo.On("GenerateOrderNumber", mock.Anything).Return("ORD-2026-0002", nil)
	orderRepo.On("Save", mock.Anything, mock.AnythingOfType("*fulfillment.Order")).Return(nil)

	resp, err := service.Create(context.Background(), billingActor(), basicCreateReq("mensajeria", "transferencia"))

	require.NoError(t, err)
	assert.Equal(t, "domicilio_local", resp.DeliveryMethod)
	assert.Equal(t, fulfillment.LocalCarrierCode, resp.CarrierCode)
}

func TestOrderService_Create_RejectsNonBillingRoles(t *testing.T) {
	service, _, _, _, _ := newTestService()

	_, err := service.Create(context.Background(),
		Actor{ID: uuid.New(), Role: fulfillment.RoleMensajero},
		basicCreateReq("transportadora", "efectivo"))

	assert.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func deliveredTestOrder(t *testing.T, status fulfillment.OrderStatus) *fulfillment.Order {
	t.Helper()
	order, err := fulfillment.NewOrder("ORD-2026-0100", "Luis Pardo",
		fulfillment.DeliveryDomicilioLocal, fulfillment.PaymentEfectivo)
	require.NoError(t, err)
	_, err = order.AddItem("Panela x24", 1, decimal.NewFromInt(48000), "")
	require.NoError(t, err)
	order.Status = status
	order.ClearDomainEvents()
	return order
}

func TestOrderService_Update_CourierDeliversFromEnReparto(t *testing.T) {
	service, orderRepo, cashRepo, _, publisher := newTestService()
	courier := uuid.New()
	order := deliveredTestOrder(t, fulfillment.StatusEnReparto)
	order.AssignMessenger(courier)

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)
	cashRepo.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(true, nil).Maybe()

	status := "entregado_cliente"
	collected := decimal.NewFromInt(48000)
	fee := decimal.NewFromInt(5000)
	resp, err := service.Update(context.Background(),
		Actor{ID: courier, Role: fulfillment.RoleMensajero},
		order.ID,
		UpdateOrderRequest{Status: &status, PaymentCollected: &collected, DeliveryFeeCollected: &fee})

	require.NoError(t, err)
	assert.Equal(t, "entregado_cliente", resp.Status)
	assert.NotNil(t, resp.DeliveredAt)
	assert.True(t, resp.CollectedAmount.Equal(collected))
	assert.True(t, resp.DeliveryFeeCollected.Equal(fee))
	assert.Len(t, publisher.GetEventsByType(fulfillment.EventTypeOrderStatusChanged), 1)
}

func TestOrderService_Update_CourierCannotDeliverFromOtherStatus(t *testing.T) {
	service, orderRepo, _, _, _ := newTestService()
	courier := uuid.New()
	order := deliveredTestOrder(t, fulfillment.StatusEnLogistica)
	order.AssignMessenger(courier)

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	status := "entregado_cliente"
	_, err := service.Update(context.Background(),
		Actor{ID: courier, Role: fulfillment.RoleMensajero},
		order.ID, UpdateOrderRequest{Status: &status})

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "PERMISSION_DENIED", domainErr.Code)
}

func TestOrderService_Update_LogisticsListoIsRewrittenToPackaging(t *testing.T) {
	service, orderRepo, _, _, _ := newTestService()
	order := deliveredTestOrder(t, fulfillment.StatusEnLogistica)

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

	status := "listo"
	resp, err := service.Update(context.Background(),
		Actor{ID: uuid.New(), Role: fulfillment.RoleLogistica},
		order.ID, UpdateOrderRequest{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, fulfillment.StatusPendienteEmpaque.String(), resp.Status)
}

func TestOrderService_Update_LogisticsBlockedAfterDelivery(t *testing.T) {
	service, orderRepo, _, _, _ := newTestService()
	order := deliveredTestOrder(t, fulfillment.StatusEntregadoCliente)

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	status := "en_reparto"
	_, err := service.Update(context.Background(),
		Actor{ID: uuid.New(), Role: fulfillment.RoleLogistica},
		order.ID, UpdateOrderRequest{Status: &status})

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "PERMISSION_DENIED", domainErr.Code)
}

func TestOrderService_Update_LegacyAliasAccepted(t *testing.T) {
	service, orderRepo, cashRepo, _, _ := newTestService()
	order := deliveredTestOrder(t, fulfillment.StatusPendienteFacturacion)

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)
	cashRepo.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(true, nil).Maybe()

	status := "confirmado"
	resp, err := service.Update(context.Background(), billingActor(), order.ID,
		UpdateOrderRequest{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, fulfillment.StatusEnLogistica.String(), resp.Status)
}

func TestOrderService_Update_UnknownStatusRejected(t *testing.T) {
	service, orderRepo, _, _, _ := newTestService()
	order := deliveredTestOrder(t, fulfillment.StatusPendienteFacturacion)

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	status := "despachado"
	_, err := service.Update(context.Background(), billingActor(), order.ID,
		UpdateOrderRequest{Status: &status})

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}

func TestOrderService_Update_WarehouseCashEntryOnEnteringLogistics(t *testing.T) {
	service, orderRepo, cashRepo, _, publisher := newTestService()
	order, err := fulfillment.NewOrder("ORD-2026-0200", "Marta Ruiz",
		fulfillment.DeliveryRecogeBodega, fulfillment.PaymentEfectivo)
	require.NoError(t, err)
	_, err = order.AddItem("Miel 1kg", 3, decimal.NewFromInt(30000), "")
	require.NoError(t, err)
	order.ClearDomainEvents()

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)
	cashRepo.On("CreateIfAbsent", mock.Anything, mock.MatchedBy(func(e *treasury.CashEntry) bool {
		return e.OrderID == order.ID &&
			e.Source == treasury.SourceWarehouse &&
			e.Amount.Equal(decimal.NewFromInt(90000))
	})).Return(true, nil).Once()

	status := "en_logistica"
	_, err = service.Update(context.Background(), billingActor(), order.ID,
		UpdateOrderRequest{Status: &status})

	require.NoError(t, err)
	cashRepo.AssertExpectations(t)
	assert.Len(t, publisher.GetEventsByType(treasury.EventTypeCashRegistered), 1)
}

func TestOrderService_Update_WarehouseCashEntryNotDuplicated(t *testing.T) {
	service, orderRepo, cashRepo, _, publisher := newTestService()
	order, err := fulfillment.NewOrder("ORD-2026-0201", "Marta Ruiz",
		fulfillment.DeliveryRecogeBodega, fulfillment.PaymentEfectivo)
	require.NoError(t, err)
	_, err = order.AddItem("Miel 1kg", 1, decimal.NewFromInt(30000), "")
	require.NoError(t, err)
	order.Status = fulfillment.StatusEnLogistica
	order.ClearDomainEvents()

	existing, err := treasury.NewWarehouseCashEntry(order.ID, order.OrderNumber,
		decimal.NewFromInt(30000), "efectivo", "recoge_bodega", uuid.New())
	require.NoError(t, err)

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)
	// entry already exists, the insert loses and no event fires
	cashRepo.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(false, nil).Once()
	cashRepo.On("FindWarehouseEntryByOrder", mock.Anything, order.ID).Return(existing, nil)

	status := "en_logistica"
	_, err = service.Update(context.Background(), billingActor(), order.ID,
		UpdateOrderRequest{Status: &status})

	require.NoError(t, err)
	assert.Empty(t, publisher.GetEventsByType(treasury.EventTypeCashRegistered))
	// unchanged total, the existing row is left alone
	cashRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestOrderService_Update_WarehouseCashEntryRepricedOnTotalChange(t *testing.T) {
	service, orderRepo, cashRepo, verificationRepo, publisher := newTestService()
	order, err := fulfillment.NewOrder("ORD-2026-0202", "Marta Ruiz",
		fulfillment.DeliveryRecogeBodega, fulfillment.PaymentEfectivo)
	require.NoError(t, err)
	_, err = order.AddItem("Miel 1kg", 1, decimal.NewFromInt(30000), "")
	require.NoError(t, err)
	order.Status = fulfillment.StatusEnLogistica
	order.ClearDomainEvents()

	// the ledger row still carries the pre-edit total
	existing, err := treasury.NewWarehouseCashEntry(order.ID, order.OrderNumber,
		decimal.NewFromInt(30000), "efectivo", "recoge_bodega", uuid.New())
	require.NoError(t, err)

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)
	verificationRepo.On("ResetForOrder", mock.Anything, order.ID).Return(nil)
	cashRepo.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(false, nil).Once()
	cashRepo.On("FindWarehouseEntryByOrder", mock.Anything, order.ID).Return(existing, nil)
	cashRepo.On("Save", mock.Anything, mock.MatchedBy(func(e *treasury.CashEntry) bool {
		return e.Amount.Equal(decimal.NewFromInt(90000)) && e.Status == treasury.EntryStatusPending
	})).Return(nil).Once()

	status := "en_logistica"
	_, err = service.Update(context.Background(), billingActor(), order.ID,
		UpdateOrderRequest{
			Status: &status,
			Items: []CreateOrderItemInput{
				{Name: "Miel 1kg", Quantity: 3, UnitPrice: decimal.NewFromInt(30000)},
			},
		})

	require.NoError(t, err)
	cashRepo.AssertExpectations(t)
	assert.Empty(t, publisher.GetEventsByType(treasury.EventTypeCashRegistered))
}

func TestOrderService_Update_ShippingDateLockedAgainstOtherRoles(t *testing.T) {
	service, orderRepo, _, _, _ := newTestService()
	order := deliveredTestOrder(t, fulfillment.StatusEnLogistica)
	billingDate := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	order.SetShippingDate(fulfillment.RoleFacturacion, billingDate, false)

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

	laterDate := billingDate.AddDate(0, 0, 5)
	resp, err := service.Update(context.Background(),
		Actor{ID: uuid.New(), Role: fulfillment.RoleLogistica},
		order.ID, UpdateOrderRequest{ShippingDate: &laterDate})

	// the write is silently dropped, not rejected
	require.NoError(t, err)
	require.NotNil(t, resp.ShippingDate)
	assert.True(t, resp.ShippingDate.Equal(billingDate))
}

func TestOrderService_Update_ReplaceItemsResetsVerification(t *testing.T) {
	service, orderRepo, _, verificationRepo, _ := newTestService()
	order := deliveredTestOrder(t, fulfillment.StatusPendienteEmpaque)

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)
	verificationRepo.On("ResetForOrder", mock.Anything, order.ID).Return(nil).Once()

	resp, err := service.Update(context.Background(), billingActor(), order.ID,
		UpdateOrderRequest{Items: []CreateOrderItemInput{
			{Name: "Chocolate x12", Quantity: 4, UnitPrice: decimal.NewFromInt(12000)},
		}})

	require.NoError(t, err)
	verificationRepo.AssertExpectations(t)
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(48000)))
}

func TestOrderService_Update_CarteraApprovesToLogistics(t *testing.T) {
	service, orderRepo, cashRepo, _, _ := newTestService()
	order, err := fulfillment.NewOrder("ORD-2026-0300", "Pedro Gil",
		fulfillment.DeliveryRecogeBodega, fulfillment.PaymentTransferencia)
	require.NoError(t, err)
	_, err = order.AddItem("Arequipe", 1, decimal.NewFromInt(15000), "")
	require.NoError(t, err)
	order.ClearDomainEvents()
	require.Equal(t, fulfillment.StatusRevisionCartera, order.Status)

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)
	// transfer payment at pickup never needs a cash row
	cashRepo.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(true, nil).Maybe()

	status := "en_logistica"
	resp, err := service.Update(context.Background(),
		Actor{ID: uuid.New(), Role: fulfillment.RoleCartera},
		order.ID, UpdateOrderRequest{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, fulfillment.StatusEnLogistica.String(), resp.Status)
	cashRepo.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
}

func TestOrderService_Update_CarteraCannotTouchOtherStatuses(t *testing.T) {
	service, orderRepo, _, _, _ := newTestService()
	order := deliveredTestOrder(t, fulfillment.StatusEnLogistica)

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	status := "en_reparto"
	_, err := service.Update(context.Background(),
		Actor{ID: uuid.New(), Role: fulfillment.RoleCartera},
		order.ID, UpdateOrderRequest{Status: &status})

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "PERMISSION_DENIED", domainErr.Code)
}

func TestOrderService_SoftDelete_WritesAuditEntry(t *testing.T) {
	service, orderRepo, _, _, publisher := newTestService()
	order := deliveredTestOrder(t, fulfillment.StatusPendienteFacturacion)
	actor := billingActor()

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orderRepo.On("SoftDelete", mock.Anything, order.ID, mock.MatchedBy(func(a *fulfillment.OrderAuditEntry) bool {
		return a.OrderID == order.ID &&
			a.Action == fulfillment.AuditActionDelete &&
			a.ActorID == actor.ID &&
			a.Reason == "duplicate entry"
	})).Return(nil).Once()

	err := service.SoftDelete(context.Background(), actor, order.ID, "duplicate entry")

	require.NoError(t, err)
	orderRepo.AssertExpectations(t)
	assert.Len(t, publisher.GetEventsByType(fulfillment.EventTypeOrderDeleted), 1)
}

func TestOrderService_SoftDelete_RequiresManagingRole(t *testing.T) {
	service, _, _, _, _ := newTestService()

	err := service.SoftDelete(context.Background(),
		Actor{ID: uuid.New(), Role: fulfillment.RoleEmpaque}, uuid.New(), "")

	assert.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestOrderService_OnOrderPacked_MovesOrderToReady(t *testing.T) {
	service, orderRepo, _, _, _ := newTestService()
	order := deliveredTestOrder(t, fulfillment.StatusEnEmpaque)

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

	err := service.OnOrderPacked(context.Background(), order.ID)

	require.NoError(t, err)
	assert.Equal(t, fulfillment.StatusListoParaEntrega, order.Status)
}

func TestOrderService_OnOrderPacked_IgnoresOrdersOutsidePackaging(t *testing.T) {
	service, orderRepo, _, _, _ := newTestService()
	order := deliveredTestOrder(t, fulfillment.StatusEnReparto)

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	err := service.OnOrderPacked(context.Background(), order.ID)

	require.NoError(t, err)
	assert.Equal(t, fulfillment.StatusEnReparto, order.Status)
	orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestOrderService_List_CourierScopedToAssignedOrders(t *testing.T) {
	service, orderRepo, _, _, _ := newTestService()
	courier := uuid.New()

	orderRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["assigned_messenger_id"] == courier.String()
	})).Return([]fulfillment.Order{}, nil)
	orderRepo.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)

	_, _, err := service.List(context.Background(),
		Actor{ID: courier, Role: fulfillment.RoleMensajero}, OrderListFilter{})

	require.NoError(t, err)
	orderRepo.AssertExpectations(t)
}
