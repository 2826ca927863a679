package payment

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"shopmall-be/internal/logger"
	"shopmall-be/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	ProviderIamport = "iamport"

	// WebhookTokenHeader carries a shared secret that the reverse proxy in
	// front of the webhook endpoint injects. Iamport itself sends no token.
	WebhookTokenHeader = "X-Webhook-Token"

	tokenSafetyMargin = time.Minute
)

type IamportConfig struct {
	APIKey       string
	APISecret    string
	BaseURL      string
	WebhookToken string
	// RequireWebhookToken refuses webhooks while WebhookToken is unset.
	RequireWebhookToken bool
	Timeout             time.Duration
}

// envelope is the provider's common response wrapper. A non-zero code is a
// refusal even when the HTTP status is 200.
type envelope struct {
	Code     int             `json:"code"`
	Message  *string         `json:"message"`
	Response json.RawMessage `json:"response"`
}

type iamportGateway struct {
	cfg        IamportConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*envelope]
	metrics    *metrics.Metrics

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// ----------------- Constructor -----------------

func NewIamportGateway(cfg IamportConfig, m *metrics.Metrics) Gateway {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		logger.L().Warn("Iamport credentials are empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &iamportGateway{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    newBreaker(ProviderIamport),
		metrics:    m,
	}
}

// newBreaker opens after five consecutive transport failures. Provider
// refusals (a decoded non-zero code) do not count against it.
func newBreaker(name string) *gobreaker.CircuitBreaker[*envelope] {
	return gobreaker.NewCircuitBreaker[*envelope](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var gwErr *GatewayError
			if errors.As(err, &gwErr) {
				return gwErr.providerRejected()
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.L().Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// ----------------- Query Payment -----------------

func (g *iamportGateway) QueryPayment(ctx context.Context, paymentID string) (*GatewayReport, error) {
	log := logger.For(ctx, "gateway", "QueryPayment").With(zap.String("payment_num", paymentID))

	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	env, err := g.call(ctx, "query", http.MethodGet, "/payments/"+url.PathEscape(paymentID), token, nil)
	if err != nil {
		log.Error("payment query failed", zap.Error(err))
		return nil, err
	}

	var wire struct {
		PaymentID  string          `json:"imp_uid"`
		MerchantID string          `json:"merchant_uid"`
		Amount     decimal.Decimal `json:"amount"`
		Status     string          `json:"status"`
		Method     string          `json:"pay_method"`
		Name       string          `json:"name"`
	}
	if err := json.Unmarshal(env.Response, &wire); err != nil {
		return nil, &GatewayError{Op: "query", Message: "decode response", Err: err}
	}

	// Amounts are whole won. A fraction would be lost by IntPart and could
	// make a short payment look exact.
	if !wire.Amount.Equal(wire.Amount.Truncate(0)) {
		log.Error("non-integral payment amount", zap.String("amount", wire.Amount.String()))
		return nil, &GatewayError{Op: "query", Message: "non-integral amount " + wire.Amount.String()}
	}

	report := &GatewayReport{
		PaymentID:  wire.PaymentID,
		MerchantID: wire.MerchantID,
		Amount:     wire.Amount.IntPart(),
		Status:     wire.Status,
		Method:     wire.Method,
		Name:       wire.Name,
	}

	log.Info("payment queried",
		zap.String("order_num", report.MerchantID),
		zap.Int64("amount", report.Amount),
		zap.String("status", report.Status),
	)
	return report, nil
}

// ----------------- Cancel Payment -----------------

// Cancel refunds amount of the payment. The amount doubles as the provider's
// checksum so a refund never exceeds what we believe is refundable.
func (g *iamportGateway) Cancel(ctx context.Context, paymentID string, amount int64, reason string) (*CancelResult, error) {
	log := logger.For(ctx, "gateway", "Cancel").With(
		zap.String("payment_num", paymentID),
		zap.Int64("amount", amount),
	)

	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"imp_uid":  paymentID,
		"amount":   amount,
		"checksum": amount,
		"reason":   reason,
	}

	env, err := g.call(ctx, "cancel", http.MethodPost, "/payments/cancel", token, body)
	if err != nil {
		log.Error("payment cancel failed", zap.Error(err))
		return nil, err
	}

	var wire struct {
		PaymentID    string          `json:"imp_uid"`
		MerchantID   string          `json:"merchant_uid"`
		CancelAmount decimal.Decimal `json:"cancel_amount"`
	}
	if err := json.Unmarshal(env.Response, &wire); err != nil {
		return nil, &GatewayError{Op: "cancel", Message: "decode response", Err: err}
	}

	log.Info("payment cancelled", zap.String("order_num", wire.MerchantID))
	return &CancelResult{
		PaymentID:    wire.PaymentID,
		MerchantID:   wire.MerchantID,
		CancelAmount: wire.CancelAmount.IntPart(),
	}, nil
}

// ----------------- Verify Webhook -----------------

func (g *iamportGateway) VerifyWebhook(r *http.Request) error {
	expected := g.cfg.WebhookToken
	if expected == "" {
		if g.cfg.RequireWebhookToken {
			return ErrWebhookTokenNotConfigured
		}
		return nil // skip in dev
	}

	got := r.Header.Get(WebhookTokenHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
		return ErrInvalidWebhookToken
	}
	return nil
}

// ----------------- Internals -----------------

func (g *iamportGateway) accessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" && time.Now().Add(tokenSafetyMargin).Before(g.tokenExpiry) {
		return g.token, nil
	}

	if g.cfg.APIKey == "" || g.cfg.APISecret == "" {
		return "", &GatewayError{Op: "token", Err: ErrMissingCredentials}
	}

	env, err := g.call(ctx, "token", http.MethodPost, "/users/getToken", "", map[string]string{
		"imp_key":    g.cfg.APIKey,
		"imp_secret": g.cfg.APISecret,
	})
	if err != nil {
		return "", err
	}

	var wire struct {
		AccessToken string `json:"access_token"`
		ExpiredAt   int64  `json:"expired_at"`
	}
	if err := json.Unmarshal(env.Response, &wire); err != nil || wire.AccessToken == "" {
		return "", &GatewayError{Op: "token", Message: "malformed token response", Err: err}
	}

	g.token = wire.AccessToken
	g.tokenExpiry = time.Unix(wire.ExpiredAt, 0)
	return g.token, nil
}

// call runs one request through the breaker and unwraps the envelope.
func (g *iamportGateway) call(ctx context.Context, op, method, path, token string, body any) (*envelope, error) {
	timer := metrics.StartTimer()

	env, err := g.breaker.Execute(func() (*envelope, error) {
		return g.do(ctx, op, method, path, token, body)
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &GatewayError{Op: op, Message: "circuit open", Err: err}
	}

	g.metrics.ObserveGatewayCall(op, err, timer.Duration())
	return env, err
}

func (g *iamportGateway) do(ctx context.Context, op, method, path, token string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, &GatewayError{Op: op, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, &GatewayError{Op: op, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Op: op, Message: "read response", Err: err}
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		return nil, &GatewayError{
			Op:      op,
			Message: fmt.Sprintf("http %d", resp.StatusCode),
			Err:     err,
		}
	}

	if env.Code != 0 || resp.StatusCode >= http.StatusBadRequest {
		msg := http.StatusText(resp.StatusCode)
		if env.Message != nil {
			msg = *env.Message
		}
		code := env.Code
		if code == 0 {
			code = resp.StatusCode
		}
		gwErr := &GatewayError{Op: op, Code: code, Message: msg}
		if resp.StatusCode >= http.StatusInternalServerError {
			gwErr.Err = errors.New(http.StatusText(resp.StatusCode))
		}
		return nil, gwErr
	}

	return &env, nil
}
