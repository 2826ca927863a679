package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"shopmall-be/internal/checkout"
	"shopmall-be/internal/logger"
	"shopmall-be/internal/metrics"
	"shopmall-be/internal/order"
	"shopmall-be/internal/payment"

	"go.uber.org/zap"
)

const maxPayloadBytes = 64 << 10

// Webhook results, also used as metric labels.
const (
	resultProcessed = "processed"
	resultDuplicate = "duplicate"
	resultIgnored   = "ignored"
	resultRejected  = "rejected"
	resultFailed    = "failed"
)

type Handler struct {
	reconciler checkout.Reconciler
	payments   payment.Repository
	gateway    payment.Gateway
	metrics    *metrics.Metrics
}

func NewHandler(r checkout.Reconciler, payments payment.Repository, gateway payment.Gateway, m *metrics.Metrics) *Handler {
	return &Handler{reconciler: r, payments: payments, gateway: gateway, metrics: m}
}

type response struct {
	Result  string           `json:"result"`
	Outcome *checkout.Result `json:"outcome,omitempty"`
}

// ServeHTTP handles a gateway payment notification. Every delivery is logged;
// a delivery already processed is acknowledged without reconciling again.
// Business failures are acknowledged with 200 so the gateway stops retrying,
// transient ones answer 5xx so it retries.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.For(ctx, "webhook", "ServeHTTP")

	if err := h.gateway.VerifyWebhook(r); err != nil {
		log.Warn("webhook verification failed", zap.Error(err))
		h.respond(w, http.StatusUnauthorized, resultRejected, nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.respond(w, http.StatusBadRequest, resultRejected, nil)
		return
	}
	defer r.Body.Close()

	var ev payment.WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil || ev.PaymentID == "" {
		log.Warn("invalid webhook payload", zap.ByteString("payload", body))
		h.respond(w, http.StatusBadRequest, resultRejected, nil)
		return
	}

	log = log.With(
		zap.String("payment_num", ev.PaymentID),
		zap.String("order_num", ev.MerchantID),
		zap.String("status", ev.Status),
	)

	rec, err := h.payments.SaveWebhook(ctx, payment.ProviderIamport, ev, body)
	if err != nil {
		log.Error("failed to log webhook", zap.Error(err))
		h.respond(w, http.StatusInternalServerError, resultFailed, nil)
		return
	}

	if rec.Processed {
		log.Info("duplicate webhook skipped")
		h.respond(w, http.StatusOK, resultDuplicate, nil)
		return
	}

	if ev.Status != payment.StatusPaid {
		h.markProcessed(r, rec.ID)
		log.Info("webhook status ignored")
		h.respond(w, http.StatusOK, resultIgnored, nil)
		return
	}

	res, err := h.reconciler.ConfirmFromGateway(ctx, ev.PaymentID)
	if err != nil {
		if mErr := h.payments.MarkWebhookFailed(ctx, rec.ID, err.Error()); mErr != nil {
			log.Error("failed to mark webhook failed", zap.Error(mErr))
		}

		if retryable(err) {
			log.Error("webhook reconciliation failed", zap.Error(err))
			h.respond(w, http.StatusInternalServerError, resultFailed, nil)
			return
		}

		log.Warn("webhook payment rejected", zap.Error(err))
		h.respond(w, http.StatusOK, resultRejected, nil)
		return
	}

	h.markProcessed(r, rec.ID)
	log.Info("webhook processed", zap.String("outcome", res.Outcome))
	h.respond(w, http.StatusOK, resultProcessed, res)
}

func (h *Handler) markProcessed(r *http.Request, id int64) {
	if err := h.payments.MarkWebhookProcessed(r.Context(), id); err != nil {
		logger.For(r.Context(), "webhook", "markProcessed").Error("failed to mark webhook processed",
			zap.Int64("webhook_id", id),
			zap.Error(err),
		)
	}
}

// retryable separates failures a later delivery may fix from settled
// business outcomes.
func retryable(err error) bool {
	switch {
	case errors.Is(err, checkout.ErrPaymentAmountMismatch),
		errors.Is(err, checkout.ErrPaymentNotPaid),
		errors.Is(err, order.ErrInvalidOrderStatus),
		errors.Is(err, order.ErrOrderNotFound):
		return false
	default:
		return true
	}
}

func (h *Handler) respond(w http.ResponseWriter, status int, result string, res *checkout.Result) {
	h.metrics.ObserveWebhook(result)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response{Result: result, Outcome: res})
}
