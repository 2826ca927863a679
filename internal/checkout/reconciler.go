package checkout

import (
	"context"
	"errors"
	"fmt"

	"shopmall-be/internal/db"
	"shopmall-be/internal/logger"
	"shopmall-be/internal/metrics"
	"shopmall-be/internal/mileage"
	"shopmall-be/internal/order"
	"shopmall-be/internal/payment"

	"go.uber.org/zap"
)

// Reconciler checks gateway-reported payments against local orders and
// either commits them or refunds and cleans up.
type Reconciler interface {
	Validate(ctx context.Context, report *payment.GatewayReport, authID string) (*Result, error)
	Compensate(ctx context.Context, report *payment.GatewayReport, authID, reason string) error
	Confirm(ctx context.Context, paymentID, authID string) (*Result, error)
	ConfirmFromGateway(ctx context.Context, paymentID string) (*Result, error)
	CancelOrder(ctx context.Context, orderNum, authID string) error
}

type reconciler struct {
	orders   order.Service
	payments payment.Repository
	ledger   mileage.Service
	gateway  payment.Gateway
	tx       db.Transactor
	metrics  *metrics.Metrics
}

func NewReconciler(
	orders order.Service,
	payments payment.Repository,
	ledger mileage.Service,
	gateway payment.Gateway,
	tx db.Transactor,
	m *metrics.Metrics,
) Reconciler {
	return &reconciler{
		orders:   orders,
		payments: payments,
		ledger:   ledger,
		gateway:  gateway,
		tx:       tx,
		metrics:  m,
	}
}

// Validate commits report against the TEMP order it names, in one
// transaction. An order already paid by the same payment is a no-op success.
// Mismatches are returned, not compensated.
func (r *reconciler) Validate(ctx context.Context, report *payment.GatewayReport, authID string) (*Result, error) {
	log := logger.For(ctx, "reconciler", "Validate").With(
		zap.String("order_num", report.MerchantID),
		zap.String("payment_num", report.PaymentID),
		zap.String("auth_id", authID),
	)

	if report.Status != payment.StatusPaid {
		return nil, fmt.Errorf("%w: gateway status %q", ErrPaymentNotPaid, report.Status)
	}

	var res *Result
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := r.orders.Find(ctx, report.MerchantID, authID)
		if err != nil {
			return err
		}

		if o.PaidWith(report.PaymentID) {
			res = &Result{
				Outcome:    metrics.OutcomeAlreadyPaid,
				OrderNum:   o.OrderNum,
				PaymentNum: report.PaymentID,
				Amount:     report.Amount,
			}
			return nil
		}
		if o.Status != order.StatusTemp {
			return fmt.Errorf("%w: order is %s", order.ErrInvalidOrderStatus, o.Status)
		}

		expected, err := r.orders.TotalAmount(ctx, o)
		if err != nil {
			return err
		}
		if report.Amount != expected {
			return fmt.Errorf("%w: expected %d, reported %d", ErrPaymentAmountMismatch, expected, report.Amount)
		}

		if err := r.orders.Pay(ctx, o, report.PaymentID); err != nil {
			return err
		}

		if _, err := r.payments.Save(ctx, &payment.Payment{
			PaymentNum: report.PaymentID,
			OrderNum:   o.OrderNum,
			Method:     report.Method,
			Status:     payment.StatusPaid,
			Amount:     report.Amount,
			OrderName:  report.Name,
		}); err != nil {
			return err
		}

		accrual := r.ledger.AccrualFor(report.Amount)
		if _, err := r.ledger.Accrue(ctx, o.OrderNum, authID, accrual, mileage.ContentPaymentAccumulate); err != nil {
			return err
		}

		res = &Result{
			Outcome:    metrics.OutcomeCommitted,
			OrderNum:   o.OrderNum,
			PaymentNum: report.PaymentID,
			Amount:     report.Amount,
			Accrued:    accrual,
		}
		return nil
	})
	if err != nil {
		log.Warn("payment validation failed", zap.Int64("amount", report.Amount), zap.Error(err))
		return nil, err
	}

	log.Info("payment reconciled", zap.String("outcome", res.Outcome), zap.Int64("accrued", res.Accrued))
	return res, nil
}

// Compensate refunds the full reported amount, then drops the TEMP order and
// its mileage. When the refund fails nothing is deleted and the gateway
// error is returned.
func (r *reconciler) Compensate(ctx context.Context, report *payment.GatewayReport, authID, reason string) error {
	log := logger.For(ctx, "reconciler", "Compensate").With(
		zap.String("order_num", report.MerchantID),
		zap.String("payment_num", report.PaymentID),
		zap.Int64("amount", report.Amount),
	)

	if _, err := r.gateway.Cancel(ctx, report.PaymentID, report.Amount, reason); err != nil {
		log.Error("refund failed, order kept", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrRefundFailed, err)
	}

	if err := r.orders.DeleteTempOrder(ctx, report.MerchantID, authID); err != nil {
		log.Error("refunded but failed to delete temp order, manual cleanup needed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrCleanupFailed, err)
	}

	log.Info("payment refunded and temp order removed", zap.String("reason", reason))
	return nil
}

// Confirm is the client-driven path: the browser hands over the gateway
// payment id once the payment window closes.
func (r *reconciler) Confirm(ctx context.Context, paymentID, authID string) (*Result, error) {
	if paymentID == "" {
		return nil, ErrEmptyPaymentID
	}

	report, err := r.gateway.QueryPayment(ctx, paymentID)
	if err != nil {
		r.metrics.ObserveReconciliation(metrics.OutcomeError)
		return nil, err
	}
	return r.reconcile(ctx, report, authID)
}

// ConfirmFromGateway is the webhook path. The owner is resolved from the
// order the gateway reports.
func (r *reconciler) ConfirmFromGateway(ctx context.Context, paymentID string) (*Result, error) {
	if paymentID == "" {
		return nil, ErrEmptyPaymentID
	}

	report, err := r.gateway.QueryPayment(ctx, paymentID)
	if err != nil {
		r.metrics.ObserveReconciliation(metrics.OutcomeError)
		return nil, err
	}

	o, err := r.orders.FindByOrderNum(ctx, report.MerchantID)
	if err != nil {
		r.metrics.ObserveReconciliation(outcomeOf(err))
		return nil, err
	}
	return r.reconcile(ctx, report, o.AuthID)
}

func (r *reconciler) reconcile(ctx context.Context, report *payment.GatewayReport, authID string) (*Result, error) {
	res, err := r.Validate(ctx, report, authID)
	if err == nil {
		r.metrics.ObserveReconciliation(res.Outcome)
		return res, nil
	}

	var reason string
	switch {
	case errors.Is(err, ErrPaymentAmountMismatch):
		reason = refundReasonMismatch
	case errors.Is(err, order.ErrInvalidOrderStatus):
		reason = refundReasonStatus
	default:
		r.metrics.ObserveReconciliation(outcomeOf(err))
		return nil, err
	}

	r.metrics.ObserveReconciliation(outcomeOf(err))
	if cerr := r.Compensate(ctx, report, authID, reason); cerr != nil {
		if errors.Is(cerr, ErrRefundFailed) {
			r.metrics.ObserveReconciliation(metrics.OutcomeRefundFailed)
			return nil, cerr
		}
		// The money is back with the customer; keep the original cause so
		// callers still see why the payment was rejected.
		r.metrics.ObserveReconciliation(metrics.OutcomeCleanupFail)
		return nil, fmt.Errorf("%w: %w", err, cerr)
	}
	r.metrics.ObserveReconciliation(metrics.OutcomeCompensated)
	return nil, err
}

// CancelOrder cancels an order on the customer's request. A paid order is
// refunded first; if the gateway refuses, nothing changes.
func (r *reconciler) CancelOrder(ctx context.Context, orderNum, authID string) error {
	log := logger.For(ctx, "reconciler", "CancelOrder").With(
		zap.String("order_num", orderNum),
		zap.String("auth_id", authID),
	)

	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := r.orders.Find(ctx, orderNum, authID)
		if err != nil {
			return err
		}

		switch o.Status {
		case order.StatusTemp:
		case order.StatusPaid:
			p, err := r.payments.FindByOrderNum(ctx, orderNum)
			if err != nil {
				return err
			}
			if _, err := r.gateway.Cancel(ctx, p.PaymentNum, p.Amount, refundReasonCancel); err != nil {
				return fmt.Errorf("%w: %w", ErrRefundFailed, err)
			}
			if err := r.payments.MarkCancelled(ctx, p.PaymentNum, p.Amount); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: order is %s", order.ErrInvalidOrderStatus, o.Status)
		}

		return r.orders.CancelMyOrder(ctx, orderNum, authID)
	})
	if err != nil {
		log.Warn("failed to cancel order", zap.Error(err))
		return err
	}

	log.Info("order cancelled")
	return nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrPaymentAmountMismatch):
		return metrics.OutcomeMismatch
	case errors.Is(err, order.ErrInvalidOrderStatus):
		return metrics.OutcomeStatus
	case errors.Is(err, order.ErrOrderNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
