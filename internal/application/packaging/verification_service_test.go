package packaging

import (
	"context"
	"sync"
	"testing"

	"github.com/fulfillment/backend/internal/domain/catalog"
	"github.com/fulfillment/backend/internal/domain/fulfillment"
	"github.com/fulfillment/backend/internal/domain/packaging"
	"github.com/fulfillment/backend/internal/domain/shared"
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

// MockOrderRepository is a partial mock of fulfillment.OrderRepository
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

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

// MockCompletionListener records packed notifications
type MockCompletionListener struct {
	mock.Mock
}

func (m *MockCompletionListener) OnOrderPacked(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func newTestService() (*VerificationService, *MockVerificationRepository, *MockOrderRepository, *MockProductRepository, *MockCompletionListener, *MockEventPublisher) {
	verificationRepo := new(MockVerificationRepository)
	orderRepo := new(MockOrderRepository)
	productRepo := new(MockProductRepository)
	listener := new(MockCompletionListener)
	publisher := NewMockEventPublisher()
	service := NewVerificationService(verificationRepo, orderRepo, productRepo, shared.NoopTransactionManager{})
	service.SetEventPublisher(publisher)
	service.SetCompletionListener(listener)
	return service, verificationRepo, orderRepo, productRepo, listener, publisher
}

func packagingOrder(t *testing.T, itemNames []string, quantities []int) *fulfillment.Order {
	t.Helper()
	order, err := fulfillment.NewOrder("ORD-2026-0500", "Rosa Mejia",
		fulfillment.DeliveryDomicilioLocal, fulfillment.PaymentEfectivo)
	require.NoError(t, err)
	for i, name := range itemNames {
		_, err = order.AddItem(name, quantities[i], decimal.NewFromInt(10000), "")
		require.NoError(t, err)
	}
	order.Status = fulfillment.StatusEnEmpaque
	order.ClearDomainEvents()
	return order
}

func TestVerificationService_VerifyItem_CreatesRowAndCompletesOrder(t *testing.T) {
	service, verificationRepo, orderRepo, _, listener, publisher := newTestService()
	order := packagingOrder(t, []string{"Cafe 500g"}, []int{2})
	item := order.Items[0]

	orderRepo.On("FindByItemID", mock.Anything, item.ID).Return(order, nil)
	verificationRepo.On("FindByOrderItem", mock.Anything, item.ID).Return(nil, shared.ErrNotFound)
	verificationRepo.On("Save", mock.Anything, mock.MatchedBy(func(v *packaging.Verification) bool {
		return v.OrderItemID == item.ID && v.IsVerified && v.ScannedCount == v.RequiredScans
	})).Return(nil)
	verificationRepo.On("CountVerified", mock.Anything, order.ID, mock.Anything).Return(1, 1, nil)
	listener.On("OnOrderPacked", mock.Anything, order.ID).Return(nil).Once()

	resp, err := service.VerifyItem(context.Background(), item.ID, PackerAttributes{Weight: "1.1kg"})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.TouchedLines)
	assert.True(t, resp.OrderCompleted)
	listener.AssertExpectations(t)
	assert.Len(t, publisher.GetEventsByType(packaging.EventTypeItemVerified), 1)
	assert.Len(t, publisher.GetEventsByType(packaging.EventTypeOrderPacked), 1)
}

func TestVerificationService_VerifyItem_IdempotentOnVerifiedLine(t *testing.T) {
	service, verificationRepo, orderRepo, _, listener, publisher := newTestService()
	order := packagingOrder(t, []string{"Cafe 500g", "Panela x24"}, []int{1, 1})
	item := order.Items[0]

	existing, err := packaging.NewVerification(order.ID, item.ID, 1)
	require.NoError(t, err)
	existing.MarkVerified()

	orderRepo.On("FindByItemID", mock.Anything, item.ID).Return(order, nil)
	verificationRepo.On("FindByOrderItem", mock.Anything, item.ID).Return(existing, nil)
	verificationRepo.On("Save", mock.Anything, existing).Return(nil)
	verificationRepo.On("CountVerified", mock.Anything, order.ID, mock.Anything).Return(1, 2, nil)

	resp, err := service.VerifyItem(context.Background(), item.ID, PackerAttributes{})

	require.NoError(t, err)
	assert.Equal(t, 0, resp.TouchedLines)
	assert.False(t, resp.OrderCompleted)
	listener.AssertNotCalled(t, "OnOrderPacked", mock.Anything, mock.Anything)
	assert.Empty(t, publisher.GetEventsByType(packaging.EventTypeItemVerified))
}

func TestVerificationService_VerifyAll_ReportsTouchedLines(t *testing.T) {
	service, verificationRepo, orderRepo, _, listener, _ := newTestService()
	order := packagingOrder(t, []string{"Cafe 500g", "Panela x24"}, []int{2, 3})

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	verificationRepo.On("MarkAllVerified", mock.Anything, order.ID,
		mock.AnythingOfType("[]uuid.UUID"), mock.AnythingOfType("map[uuid.UUID]int")).
		Return(2, nil)
	verificationRepo.On("CountVerified", mock.Anything, order.ID, mock.Anything).Return(2, 2, nil)
	listener.On("OnOrderPacked", mock.Anything, order.ID).Return(nil).Once()

	resp, err := service.VerifyAll(context.Background(), order.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, resp.TouchedLines)
	assert.True(t, resp.OrderCompleted)
	listener.AssertExpectations(t)
}

func TestVerificationService_ScanBarcode_UnknownCode(t *testing.T) {
	service, _, _, productRepo, _, _ := newTestService()

	productRepo.On("FindByBarcode", mock.Anything, "0000").Return(nil, shared.ErrNotFound)

	_, err := service.ScanBarcode(context.Background(), uuid.New(), "0000")

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestVerificationService_ScanBarcode_ProductNotOnOrder(t *testing.T) {
	service, _, orderRepo, productRepo, _, _ := newTestService()
	order := packagingOrder(t, []string{"Cafe 500g"}, []int{1})
	product, err := catalog.NewProduct("Miel 1kg", "7701234", decimal.NewFromInt(30000))
	require.NoError(t, err)

	productRepo.On("FindByBarcode", mock.Anything, "7701234").Return(product, nil)
	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	_, err = service.ScanBarcode(context.Background(), order.ID, "7701234")

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}

func TestVerificationService_ScanBarcode_MatchesNameCaseInsensitive(t *testing.T) {
	service, verificationRepo, orderRepo, productRepo, listener, _ := newTestService()
	order := packagingOrder(t, []string{"  cafe 500G "}, []int{2})
	item := order.Items[0]
	product, err := catalog.NewProduct("Cafe 500g", "7705678", decimal.NewFromInt(25000))
	require.NoError(t, err)

	productRepo.On("FindByBarcode", mock.Anything, "7705678").Return(product, nil)
	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	verificationRepo.On("FindByOrderItem", mock.Anything, item.ID).Return(nil, shared.ErrNotFound)
	verificationRepo.On("IncrementScan", mock.Anything, mock.AnythingOfType("*packaging.Verification"), "7705678").
		Return(&packaging.ScanResult{Applied: true, Sequence: 1, ScannedCount: 1, RequiredScans: 2}, nil)
	verificationRepo.On("CountVerified", mock.Anything, order.ID, mock.Anything).Return(0, 1, nil)

	resp, err := service.ScanBarcode(context.Background(), order.ID, "7705678")

	require.NoError(t, err)
	assert.Equal(t, item.ID, resp.OrderItemID)
	assert.Equal(t, 1, resp.ScannedCount)
	assert.False(t, resp.ItemVerified)
	assert.False(t, resp.OrderCompleted)
	listener.AssertNotCalled(t, "OnOrderPacked", mock.Anything, mock.Anything)
}

func TestVerificationService_ScanBarcode_LastScanCompletesOrder(t *testing.T) {
	service, verificationRepo, orderRepo, productRepo, listener, publisher := newTestService()
	order := packagingOrder(t, []string{"Cafe 500g"}, []int{2})
	item := order.Items[0]
	product, err := catalog.NewProduct("Cafe 500g", "7705678", decimal.NewFromInt(25000))
	require.NoError(t, err)

	existing, err := packaging.NewVerification(order.ID, item.ID, 2)
	require.NoError(t, err)
	existing.ScannedCount = 1

	productRepo.On("FindByBarcode", mock.Anything, "7705678").Return(product, nil)
	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	verificationRepo.On("FindByOrderItem", mock.Anything, item.ID).Return(existing, nil)
	verificationRepo.On("IncrementScan", mock.Anything, existing, "7705678").
		Return(&packaging.ScanResult{Applied: true, Sequence: 2, NowVerified: true, ScannedCount: 2, RequiredScans: 2}, nil)
	verificationRepo.On("CountVerified", mock.Anything, order.ID, mock.Anything).Return(1, 1, nil)
	listener.On("OnOrderPacked", mock.Anything, order.ID).Return(nil).Once()

	resp, err := service.ScanBarcode(context.Background(), order.ID, "7705678")

	require.NoError(t, err)
	assert.True(t, resp.ItemVerified)
	assert.True(t, resp.OrderCompleted)
	listener.AssertExpectations(t)
	assert.Len(t, publisher.GetEventsByType(packaging.EventTypeItemVerified), 1)
}

func TestVerificationService_ScanBarcode_BeyondRequiredIsNoOp(t *testing.T) {
	service, verificationRepo, orderRepo, productRepo, listener, _ := newTestService()
	order := packagingOrder(t, []string{"Cafe 500g"}, []int{1})
	item := order.Items[0]
	product, err := catalog.NewProduct("Cafe 500g", "7705678", decimal.NewFromInt(25000))
	require.NoError(t, err)

	existing, err := packaging.NewVerification(order.ID, item.ID, 1)
	require.NoError(t, err)
	existing.MarkVerified()

	productRepo.On("FindByBarcode", mock.Anything, "7705678").Return(product, nil)
	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	verificationRepo.On("FindByOrderItem", mock.Anything, item.ID).Return(existing, nil)
	verificationRepo.On("IncrementScan", mock.Anything, existing, "7705678").
		Return(&packaging.ScanResult{Applied: false, ScannedCount: 1, RequiredScans: 1}, nil)

	resp, err := service.ScanBarcode(context.Background(), order.ID, "7705678")

	require.NoError(t, err)
	assert.True(t, resp.AlreadyVerified)
	assert.True(t, resp.ItemVerified)
	listener.AssertNotCalled(t, "OnOrderPacked", mock.Anything, mock.Anything)
}

func TestVerificationService_Complete_FailsWithCounts(t *testing.T) {
	service, verificationRepo, orderRepo, _, listener, _ := newTestService()
	order := packagingOrder(t, []string{"Cafe 500g", "Panela x24"}, []int{1, 1})

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	verificationRepo.On("CountVerified", mock.Anything, order.ID, mock.Anything).Return(1, 2, nil)

	_, err := service.Complete(context.Background(), order.ID)

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
	assert.Contains(t, domainErr.Message, "1 of 2")
	listener.AssertNotCalled(t, "OnOrderPacked", mock.Anything, mock.Anything)
}

func TestVerificationService_Complete_NotifiesWhenAllVerified(t *testing.T) {
	service, verificationRepo, orderRepo, _, listener, _ := newTestService()
	order := packagingOrder(t, []string{"Cafe 500g"}, []int{1})

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	verificationRepo.On("CountVerified", mock.Anything, order.ID, mock.Anything).Return(1, 1, nil)
	listener.On("OnOrderPacked", mock.Anything, order.ID).Return(nil).Once()

	resp, err := service.Complete(context.Background(), order.ID)

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Verified)
	assert.Equal(t, 1, resp.Total)
	listener.AssertExpectations(t)
}

func TestVerificationService_Checklist_MergesVerificationState(t *testing.T) {
	service, verificationRepo, orderRepo, _, _, _ := newTestService()
	order := packagingOrder(t, []string{"Cafe 500g", "Panela x24"}, []int{2, 1})
	first := order.Items[0]

	v, err := packaging.NewVerification(order.ID, first.ID, 2)
	require.NoError(t, err)
	v.ScannedCount = 1

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	verificationRepo.On("FindByOrder", mock.Anything, order.ID).Return([]packaging.Verification{*v}, nil)

	resp, err := service.Checklist(context.Background(), order.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 0, resp.Verified)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, 1, resp.Items[0].ScannedCount)
	assert.Equal(t, 2, resp.Items[0].RequiredScans)
	// line without a row reports quantity as required scans
	assert.Equal(t, 1, resp.Items[1].RequiredScans)
	assert.Equal(t, 0, resp.Items[1].ScannedCount)
}

func TestVerificationService_ScanLog_ReturnsScanHistory(t *testing.T) {
	service, verificationRepo, orderRepo, _, _, _ := newTestService()
	order := packagingOrder(t, []string{"Cafe 500g"}, []int{2})
	item := order.Items[0]

	events := []packaging.ScanEvent{
		*packaging.NewScanEvent(order.ID, item.ID, "7701234567890", 1),
		*packaging.NewScanEvent(order.ID, item.ID, "7701234567890", 2),
	}

	orderRepo.On("FindByItemID", mock.Anything, item.ID).Return(order, nil)
	verificationRepo.On("ScanEventsByItem", mock.Anything, item.ID).Return(events, nil)

	resp, err := service.ScanLog(context.Background(), item.ID)

	require.NoError(t, err)
	assert.Equal(t, order.ID, resp.OrderID)
	assert.Equal(t, "Cafe 500g", resp.ItemName)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Scans, 2)
	assert.Equal(t, "7701234567890", resp.Scans[0].Barcode)
	assert.Equal(t, 1, resp.Scans[0].Sequence)
	assert.Equal(t, 2, resp.Scans[1].Sequence)
}

func TestVerificationService_ScanLog_UnknownItem(t *testing.T) {
	service, verificationRepo, orderRepo, _, _, _ := newTestService()
	itemID := uuid.New()

	orderRepo.On("FindByItemID", mock.Anything, itemID).Return(nil, shared.ErrNotFound)

	_, err := service.ScanLog(context.Background(), itemID)

	assert.ErrorIs(t, err, shared.ErrNotFound)
	verificationRepo.AssertNotCalled(t, "ScanEventsByItem", mock.Anything, mock.Anything)
}
