package order

import (
	"context"
	"encoding/json"

	"shopmall-be/internal/catalog"
	"shopmall-be/internal/member"
	"shopmall-be/internal/mileage"
	"shopmall-be/internal/payment"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockRepository) FindByOrderNum(ctx context.Context, orderNum string) (*Order, error) {
	args := m.Called(ctx, orderNum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) FindByOrderNumAndAuthID(ctx context.Context, orderNum, authID string) (*Order, error) {
	args := m.Called(ctx, orderNum, authID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) ListByAuthID(ctx context.Context, authID string, limit, offset int) ([]*Order, error) {
	args := m.Called(ctx, authID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) CountByAuthID(ctx context.Context, authID string) (int64, error) {
	args := m.Called(ctx, authID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) ListTempOrderNums(ctx context.Context, authID string) ([]string, error) {
	args := m.Called(ctx, authID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockMembers struct {
	mock.Mock
}

func (m *MockMembers) FindByAuthID(ctx context.Context, authID string) (*member.Member, error) {
	args := m.Called(ctx, authID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*member.Member), args.Error(1)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) FindItem(ctx context.Context, id int64) (*catalog.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockCatalog) FindItems(ctx context.Context, ids []int64) (map[int64]*catalog.Item, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*catalog.Item), args.Error(1)
}

func (m *MockCatalog) FindSizedVariant(ctx context.Context, itemID int64, sizeLabel string) (*catalog.SizeVariant, error) {
	args := m.Called(ctx, itemID, sizeLabel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.SizeVariant), args.Error(1)
}

type MockMileage struct {
	mock.Mock
}

func (m *MockMileage) Deduct(ctx context.Context, orderNum, authID string, amount int64, content mileage.Content) error {
	args := m.Called(ctx, orderNum, authID, amount, content)
	return args.Error(0)
}

func (m *MockMileage) Accrue(ctx context.Context, orderNum, authID string, amount int64, content mileage.Content) (bool, error) {
	args := m.Called(ctx, orderNum, authID, amount, content)
	return args.Bool(0), args.Error(1)
}

func (m *MockMileage) Reverse(ctx context.Context, orderNum string) error {
	args := m.Called(ctx, orderNum)
	return args.Error(0)
}

func (m *MockMileage) BalanceFor(ctx context.Context, orderNum string, content mileage.Content) (int64, error) {
	args := m.Called(ctx, orderNum, content)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMileage) AvailableFor(ctx context.Context, authID string) (int64, error) {
	args := m.Called(ctx, authID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMileage) AccrualFor(paidAmount int64) int64 {
	args := m.Called(paidAmount)
	return args.Get(0).(int64)
}

func (m *MockMileage) Entries(ctx context.Context, orderNum string) ([]mileage.Entry, error) {
	args := m.Called(ctx, orderNum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]mileage.Entry), args.Error(1)
}

type MockPayments struct {
	mock.Mock
}

func (m *MockPayments) Save(ctx context.Context, p *payment.Payment) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *MockPayments) FindByPaymentNum(ctx context.Context, paymentNum string) (*payment.Payment, error) {
	args := m.Called(ctx, paymentNum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPayments) FindByOrderNum(ctx context.Context, orderNum string) (*payment.Payment, error) {
	args := m.Called(ctx, orderNum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPayments) MarkCancelled(ctx context.Context, paymentNum string, cancelAmount int64) error {
	args := m.Called(ctx, paymentNum, cancelAmount)
	return args.Error(0)
}

func (m *MockPayments) SaveWebhook(ctx context.Context, provider string, ev payment.WebhookEvent, payload json.RawMessage) (*payment.WebhookRecord, error) {
	args := m.Called(ctx, provider, ev, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookRecord), args.Error(1)
}

func (m *MockPayments) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	args := m.Called(ctx, webhookID)
	return args.Error(0)
}

func (m *MockPayments) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	args := m.Called(ctx, webhookID, reason)
	return args.Error(0)
}

type stubTx struct {
	calls int
}

func (s *stubTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.calls++
	return fn(ctx)
}
