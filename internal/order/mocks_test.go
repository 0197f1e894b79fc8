package order

import (
	"context"

	"storefront-be/internal/payment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) ListItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]OrderItem), args.Error(1)
}

func (m *MockRepository) CreateOrderTx(ctx context.Context, o *Order) (bool, error) {
	args := m.Called(ctx, o)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]Order), args.Int(1), args.Error(2)
}

func (m *MockRepository) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Order, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) MarkRefunded(ctx context.Context, id uuid.UUID, u refundUpdate) (*Order, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, params payment.CheckoutSessionParams) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (m *MockGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (m *MockGateway) CreateRefund(ctx context.Context, params payment.RefundParams) (*payment.Refund, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Refund), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) OrderConfirmation(ctx context.Context, o *Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockNotifier) AdminNotification(ctx context.Context, o *Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockNotifier) RefundNotification(ctx context.Context, o *Order, amount int64) error {
	return m.Called(ctx, o, amount).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	return m.Called(ctx, eventType, key, payload).Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value any) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type serviceMocks struct {
	repo      *MockRepository
	gateway   *MockGateway
	notifier  *MockNotifier
	publisher *MockPublisher
	cache     *MockCache
}

func newTestService(policy AmountPolicy) (*service, serviceMocks) {
	m := serviceMocks{
		repo:      new(MockRepository),
		gateway:   new(MockGateway),
		notifier:  new(MockNotifier),
		publisher: new(MockPublisher),
		cache:     new(MockCache),
	}
	svc := NewService(m.repo, m.gateway, m.notifier, m.publisher, m.cache, policy).(*service)
	return svc, m
}
