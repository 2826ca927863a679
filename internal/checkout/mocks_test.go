package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"shopmall-be/internal/mileage"
	"shopmall-be/internal/order"
	"shopmall-be/internal/payment"

	"github.com/stretchr/testify/mock"
)

type MockOrders struct {
	mock.Mock
}

func (m *MockOrders) Create(ctx context.Context, authID string, req order.CreateRequest) (string, error) {
	args := m.Called(ctx, authID, req)
	return args.String(0), args.Error(1)
}

func (m *MockOrders) Find(ctx context.Context, orderNum, authID string) (*order.Order, error) {
	args := m.Called(ctx, orderNum, authID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrders) FindByOrderNum(ctx context.Context, orderNum string) (*order.Order, error) {
	args := m.Called(ctx, orderNum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrders) Pay(ctx context.Context, o *order.Order, paymentNum string) error {
	args := m.Called(ctx, o, paymentNum)
	if args.Error(0) == nil {
		_ = o.Pay(paymentNum)
	}
	return args.Error(0)
}

func (m *MockOrders) Cancel(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrders) CancelMyOrder(ctx context.Context, orderNum, authID string) error {
	args := m.Called(ctx, orderNum, authID)
	return args.Error(0)
}

func (m *MockOrders) DeleteTempOrder(ctx context.Context, orderNum, authID string) error {
	args := m.Called(ctx, orderNum, authID)
	return args.Error(0)
}

func (m *MockOrders) DeleteAllTempOrders(ctx context.Context, authID string) (int, error) {
	args := m.Called(ctx, authID)
	return args.Int(0), args.Error(1)
}

func (m *MockOrders) TotalAmount(ctx context.Context, o *order.Order) (int64, error) {
	args := m.Called(ctx, o)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrders) ListMyOrders(ctx context.Context, authID string, page int) (*order.Page, error) {
	args := m.Called(ctx, authID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Page), args.Error(1)
}

func (m *MockOrders) Detail(ctx context.Context, orderNum, authID string) (*order.Detail, error) {
	args := m.Called(ctx, orderNum, authID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Detail), args.Error(1)
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

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) QueryPayment(ctx context.Context, paymentID string) (*payment.GatewayReport, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.GatewayReport), args.Error(1)
}

func (m *MockGateway) Cancel(ctx context.Context, paymentID string, amount int64, reason string) (*payment.CancelResult, error) {
	args := m.Called(ctx, paymentID, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CancelResult), args.Error(1)
}

func (m *MockGateway) VerifyWebhook(r *http.Request) error {
	args := m.Called(r)
	return args.Error(0)
}

// memLedger keeps mileage entries in memory with the same uniqueness rule
// as the mileages table.
type memLedger struct {
	mu      sync.Mutex
	entries []mileage.Entry
}

func (l *memLedger) Insert(_ context.Context, e mileage.Entry) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, x := range l.entries {
		if x.OrderNum == e.OrderNum && x.Content == e.Content {
			return false, nil
		}
	}
	e.ID = int64(len(l.entries) + 1)
	l.entries = append(l.entries, e)
	return true, nil
}

func (l *memLedger) DeleteByOrderNum(_ context.Context, orderNum string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.entries[:0]
	var n int64
	for _, x := range l.entries {
		if x.OrderNum == orderNum {
			n++
			continue
		}
		kept = append(kept, x)
	}
	l.entries = kept
	return n, nil
}

func (l *memLedger) FindPoint(_ context.Context, orderNum string, content mileage.Content) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, x := range l.entries {
		if x.OrderNum == orderNum && x.Content == content {
			return x.Point, nil
		}
	}
	return 0, nil
}

func (l *memLedger) SumByAuthID(_ context.Context, authID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sum int64
	for _, x := range l.entries {
		if x.AuthID == authID {
			sum += x.Point
		}
	}
	return sum, nil
}

func (l *memLedger) ListByOrderNum(_ context.Context, orderNum string) ([]mileage.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []mileage.Entry
	for _, x := range l.entries {
		if x.OrderNum == orderNum {
			out = append(out, x)
		}
	}
	return out, nil
}

type stubTx struct {
	calls int
}

func (s *stubTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.calls++
	return fn(ctx)
}
