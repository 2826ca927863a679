package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shopmall-be/internal/auth"
	"shopmall-be/internal/cart"
	"shopmall-be/internal/catalog"
	"shopmall-be/internal/checkout"
	"shopmall-be/internal/metrics"
	"shopmall-be/internal/middleware"
	"shopmall-be/internal/order"
	"shopmall-be/internal/payment"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type MockCarts struct {
	mock.Mock
}

func (m *MockCarts) AddCart(ctx context.Context, owner cart.Owner, lines []cart.Line) (*cart.Cart, error) {
	args := m.Called(ctx, owner, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCarts) ModifyCart(ctx context.Context, owner cart.Owner, lines []cart.Line) (*cart.Cart, error) {
	args := m.Called(ctx, owner, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCarts) GetCart(ctx context.Context, owner cart.Owner) (*cart.View, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.View), args.Error(1)
}

func (m *MockCarts) ToOrderSummary(ctx context.Context, owner cart.Owner, itemID *int64) (*cart.OrderSummary, error) {
	args := m.Called(ctx, owner, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.OrderSummary), args.Error(1)
}

func (m *MockCarts) ClearCart(ctx context.Context, owner cart.Owner) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

func (m *MockCarts) MergeOnLogin(ctx context.Context, cookieID string, memberID int64) (bool, error) {
	args := m.Called(ctx, cookieID, memberID)
	return args.Bool(0), args.Error(1)
}

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
	return m.Called(ctx, o, paymentNum).Error(0)
}

func (m *MockOrders) Cancel(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrders) CancelMyOrder(ctx context.Context, orderNum, authID string) error {
	return m.Called(ctx, orderNum, authID).Error(0)
}

func (m *MockOrders) DeleteTempOrder(ctx context.Context, orderNum, authID string) error {
	return m.Called(ctx, orderNum, authID).Error(0)
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

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Validate(ctx context.Context, report *payment.GatewayReport, authID string) (*checkout.Result, error) {
	args := m.Called(ctx, report, authID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Result), args.Error(1)
}

func (m *MockReconciler) Compensate(ctx context.Context, report *payment.GatewayReport, authID, reason string) error {
	return m.Called(ctx, report, authID, reason).Error(0)
}

func (m *MockReconciler) Confirm(ctx context.Context, paymentID, authID string) (*checkout.Result, error) {
	args := m.Called(ctx, paymentID, authID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Result), args.Error(1)
}

func (m *MockReconciler) ConfirmFromGateway(ctx context.Context, paymentID string) (*checkout.Result, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Result), args.Error(1)
}

func (m *MockReconciler) CancelOrder(ctx context.Context, orderNum, authID string) error {
	return m.Called(ctx, orderNum, authID).Error(0)
}

type fixture struct {
	router http.Handler
	carts  *MockCarts
	orders *MockOrders
	rec    *MockReconciler
}

func newFixture() *fixture {
	f := &fixture{carts: new(MockCarts), orders: new(MockOrders), rec: new(MockReconciler)}

	r := chi.NewRouter()
	r.Use(middleware.Auth(testSecret))
	NewHandler(f.carts, f.orders, f.rec).Routes(r)
	f.router = r
	return f
}

func memberToken(t *testing.T) string {
	t.Helper()
	tok, err := auth.GenerateJWT(testSecret, 7, "auth-1", "MEMBER", time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(method, path, body, token, cartID string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if cartID != "" {
		req.AddCookie(&http.Cookie{Name: auth.CartCookie, Value: cartID})
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCartHandlers(t *testing.T) {
	lines := []cart.Line{{ItemID: 1, Quantity: 2, Size: "M"}}
	body := `{"lines":[{"item_id":1,"quantity":2,"size":"M"}]}`

	t.Run("Anonymous first add issues a cart cookie", func(t *testing.T) {
		f := newFixture()
		f.carts.On("AddCart", mock.Anything, mock.MatchedBy(func(o cart.Owner) bool {
			return !o.IsMember() && o.CookieID != ""
		}), lines).Return(&cart.Cart{ID: 3}, nil)

		w := f.do(http.MethodPost, "/api/cart", body, "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.CartCookie, cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
	})

	t.Run("Member add uses the member cart", func(t *testing.T) {
		f := newFixture()
		f.carts.On("AddCart", mock.Anything, cart.MemberOwner(7), lines).Return(&cart.Cart{ID: 4}, nil)

		w := f.do(http.MethodPost, "/api/cart", body, memberToken(t), "ck-1")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("Unknown item", func(t *testing.T) {
		f := newFixture()
		err := fmt.Errorf("%w: item 1: %w", cart.ErrCartAddItemFailed, catalog.ErrItemNotFound)
		f.carts.On("AddCart", mock.Anything, cart.CookieOwner("ck-1"), lines).Return(nil, err)

		w := f.do(http.MethodPost, "/api/cart", body, "", "ck-1")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, CodeCartAddItemFailed, decodeError(t, w).Error)
	})

	t.Run("Malformed body", func(t *testing.T) {
		f := newFixture()
		w := f.do(http.MethodPost, "/api/cart", `{"lines":`, "", "ck-1")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, CodeInvalidRequest, decodeError(t, w).Error)
	})

	t.Run("Get without any cart is empty", func(t *testing.T) {
		f := newFixture()
		w := f.do(http.MethodGet, "/api/cart", "", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"cart_id":0,"items":[],"total_amount":0,"total_quantity":0}`, w.Body.String())
	})

	t.Run("Modify a missing cart", func(t *testing.T) {
		f := newFixture()
		f.carts.On("ModifyCart", mock.Anything, cart.CookieOwner("ck-1"), lines).Return(nil, cart.ErrCartNotFound)

		w := f.do(http.MethodPut, "/api/cart", body, "", "ck-1")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, CodeNotFound, decodeError(t, w).Error)
	})

	t.Run("Order summary for one item", func(t *testing.T) {
		f := newFixture()
		id := int64(1)
		f.carts.On("ToOrderSummary", mock.Anything, cart.CookieOwner("ck-1"), &id).
			Return(&cart.OrderSummary{TotalAmount: 20000, TotalQuantity: 2}, nil)

		w := f.do(http.MethodGet, "/api/cart/order-summary?item_id=1", "", "", "ck-1")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total_amount":20000`)
	})

	t.Run("Clear", func(t *testing.T) {
		f := newFixture()
		f.carts.On("ClearCart", mock.Anything, cart.CookieOwner("ck-1")).Return(nil)

		assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/cart", "", "", "ck-1").Code)
	})
}

func TestMergeCart(t *testing.T) {
	t.Run("Merged cart clears the cookie", func(t *testing.T) {
		f := newFixture()
		f.carts.On("MergeOnLogin", mock.Anything, "ck-1", int64(7)).Return(true, nil)

		w := f.do(http.MethodPost, "/api/cart/merge", "", memberToken(t), "ck-1")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"merged":true}`, w.Body.String())
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("Missing member cart is reported with a reason", func(t *testing.T) {
		f := newFixture()
		f.carts.On("MergeOnLogin", mock.Anything, "ck-1", int64(7)).Return(false, cart.ErrCartNotFound)

		w := f.do(http.MethodPost, "/api/cart/merge", "", memberToken(t), "ck-1")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"merged":false,"reason":"MEMBER_CART_NOT_FOUND"}`, w.Body.String())
		assert.Empty(t, w.Result().Cookies(), "anonymous cart cookie is kept")
	})

	t.Run("Nothing to merge has no reason", func(t *testing.T) {
		f := newFixture()
		f.carts.On("MergeOnLogin", mock.Anything, "ck-1", int64(7)).Return(false, nil)

		w := f.do(http.MethodPost, "/api/cart/merge", "", memberToken(t), "ck-1")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"merged":false}`, w.Body.String())
	})

	t.Run("Anonymous callers are rejected", func(t *testing.T) {
		f := newFixture()
		assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/cart/merge", "", "", "ck-1").Code)
	})
}

func TestOrderHandlers(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		f := newFixture()
		f.orders.On("Create", mock.Anything, "auth-1", mock.MatchedBy(func(req order.CreateRequest) bool {
			return len(req.Lines) == 1 && req.UseMileage == 1000 && req.Delivery.Recipient == "Lee"
		})).Return("ORD-1", nil)

		w := f.do(http.MethodPost, "/api/orders",
			`{"lines":[{"item_id":1,"quantity":1,"size":"M"}],"delivery":{"recipient":"Lee"},"use_mileage":1000}`,
			memberToken(t), "")

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"order_num":"ORD-1"}`, w.Body.String())
	})

	t.Run("Insufficient mileage", func(t *testing.T) {
		f := newFixture()
		f.orders.On("Create", mock.Anything, "auth-1", mock.Anything).Return("", order.ErrMileageExceedsTotal)

		w := f.do(http.MethodPost, "/api/orders", `{"lines":[{"item_id":1,"quantity":1}]}`, memberToken(t), "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, CodeInsufficientPoints, decodeError(t, w).Error)
	})

	t.Run("Orders need a member", func(t *testing.T) {
		f := newFixture()
		assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/orders", "", "", "").Code)
	})

	t.Run("List passes the page through", func(t *testing.T) {
		f := newFixture()
		f.orders.On("ListMyOrders", mock.Anything, "auth-1", 2).Return(&order.Page{Page: 2, Size: 10}, nil)

		w := f.do(http.MethodGet, "/api/orders?page=2", "", memberToken(t), "")

		assert.Equal(t, http.StatusOK, w.Code)
		f.orders.AssertExpectations(t)
	})

	t.Run("Detail of a foreign order", func(t *testing.T) {
		f := newFixture()
		f.orders.On("Detail", mock.Anything, "ORD-9", "auth-1").Return(nil, order.ErrOrderNotFound)

		w := f.do(http.MethodGet, "/api/orders/ORD-9", "", memberToken(t), "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Cancel with a failed refund", func(t *testing.T) {
		f := newFixture()
		err := fmt.Errorf("%w: %w", checkout.ErrRefundFailed, &payment.GatewayError{Op: "cancel", Code: 1, Message: "rejected"})
		f.rec.On("CancelOrder", mock.Anything, "ORD-1", "auth-1").Return(err)

		w := f.do(http.MethodPost, "/api/orders/ORD-1/cancel", "", memberToken(t), "")

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, CodeRefundFailed, decodeError(t, w).Error)
	})

	t.Run("Cancel a delivered order", func(t *testing.T) {
		f := newFixture()
		f.rec.On("CancelOrder", mock.Anything, "ORD-1", "auth-1").Return(order.ErrInvalidOrderStatus)

		w := f.do(http.MethodPost, "/api/orders/ORD-1/cancel", "", memberToken(t), "")

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Delete all temp orders", func(t *testing.T) {
		f := newFixture()
		f.orders.On("DeleteAllTempOrders", mock.Anything, "auth-1").Return(2, nil)

		w := f.do(http.MethodDelete, "/api/orders/temp", "", memberToken(t), "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"deleted":2}`, w.Body.String())
	})

	t.Run("Delete one temp order", func(t *testing.T) {
		f := newFixture()
		f.orders.On("DeleteTempOrder", mock.Anything, "ORD-1", "auth-1").Return(nil)

		w := f.do(http.MethodDelete, "/api/orders/ORD-1/temp", "", memberToken(t), "")

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestValidatePayment(t *testing.T) {
	t.Run("Committed", func(t *testing.T) {
		f := newFixture()
		f.rec.On("Confirm", mock.Anything, "imp_1", "auth-1").
			Return(&checkout.Result{Outcome: metrics.OutcomeCommitted, OrderNum: "ORD-1", Amount: 12000, Accrued: 1200}, nil)

		w := f.do(http.MethodPost, "/api/payments/validate", `{"imp_uid":" imp_1 "}`, memberToken(t), "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"accrued_mileage":1200`)
	})

	t.Run("Mismatch is distinct from a refund failure", func(t *testing.T) {
		f := newFixture()
		f.rec.On("Confirm", mock.Anything, "imp_1", "auth-1").
			Return(nil, fmt.Errorf("%w: expected 12000, reported 11000", checkout.ErrPaymentAmountMismatch))

		w := f.do(http.MethodPost, "/api/payments/validate", `{"imp_uid":"imp_1"}`, memberToken(t), "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, CodeAmountMismatch, decodeError(t, w).Error)
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{cart.ErrCartNotFound, http.StatusNotFound, CodeNotFound},
		{fmt.Errorf("wrap: %w", order.ErrOrderNotFound), http.StatusNotFound, CodeNotFound},
		{order.ErrInvalidOrderStatus, http.StatusConflict, CodeInvalidOrderStatus},
		{checkout.ErrPaymentAmountMismatch, http.StatusBadRequest, CodeAmountMismatch},
		{&payment.GatewayError{Op: "query", Err: errors.New("timeout")}, http.StatusBadGateway, CodeGatewayError},
		{fmt.Errorf("%w: %w", checkout.ErrRefundFailed, &payment.GatewayError{Op: "cancel", Code: 1}), http.StatusBadGateway, CodeRefundFailed},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		status, code := classify(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "OK")
}
