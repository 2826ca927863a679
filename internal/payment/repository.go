package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"shopmall-be/internal/db"
	"shopmall-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Save(ctx context.Context, p *Payment) (bool, error)
	FindByPaymentNum(ctx context.Context, paymentNum string) (*Payment, error)
	FindByOrderNum(ctx context.Context, orderNum string) (*Payment, error)
	MarkCancelled(ctx context.Context, paymentNum string, cancelAmount int64) error

	SaveWebhook(ctx context.Context, provider string, ev WebhookEvent, payload json.RawMessage) (*WebhookRecord, error)
	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const paymentColumns = `id, payment_num, order_num, pay_method, pay_status, pay_amount, order_name, cancel_amount, created_at`

func scanPayment(row interface{ Scan(...any) error }) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.PaymentNum, &p.OrderNum, &p.Method, &p.Status, &p.Amount, &p.OrderName, &p.CancelAmount, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save records a payment once. It reports false when the payment number is
// already stored, leaving the existing row as is.
func (r *repository) Save(ctx context.Context, p *Payment) (bool, error) {
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO payments (payment_num, order_num, pay_method, pay_status, pay_amount, order_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (payment_num) DO NOTHING
		RETURNING id, created_at
	`, p.PaymentNum, p.OrderNum, p.Method, p.Status, p.Amount, p.OrderName).Scan(&p.ID, &p.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		logger.For(ctx, "repository", "Save").Error("failed to save payment",
			zap.String("payment_num", p.PaymentNum),
			zap.String("order_num", p.OrderNum),
			zap.Error(err),
		)
		return false, err
	}
	return true, nil
}

func (r *repository) FindByPaymentNum(ctx context.Context, paymentNum string) (*Payment, error) {
	return scanPayment(db.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_num = $1`, paymentNum))
}

// FindByOrderNum returns the most recent payment for the order.
func (r *repository) FindByOrderNum(ctx context.Context, orderNum string) (*Payment, error) {
	return scanPayment(db.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_num = $1 ORDER BY id DESC LIMIT 1`, orderNum))
}

func (r *repository) MarkCancelled(ctx context.Context, paymentNum string, cancelAmount int64) error {
	res, err := db.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE payments
		SET pay_status = $1, cancel_amount = $2
		WHERE payment_num = $3
	`, StatusCancelled, cancelAmount, paymentNum)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// SaveWebhook logs a gateway notification. Repeated deliveries of the same
// (payment, status) bump received_count and report whether an earlier
// delivery was already processed.
func (r *repository) SaveWebhook(ctx context.Context, provider string, ev WebhookEvent, payload json.RawMessage) (*WebhookRecord, error) {
	const q = `
	INSERT INTO payment_webhooks (provider, payment_num, status, payload)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (provider, payment_num, status)
	DO UPDATE SET received_count = payment_webhooks.received_count + 1
	RETURNING id, processed_at IS NOT NULL
	`

	rec := &WebhookRecord{Payload: payload}
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, q,
		provider, ev.PaymentID, ev.Status, []byte(payload),
	).Scan(&rec.ID, &rec.Processed)
	if err != nil {
		logger.For(ctx, "repository", "SaveWebhook").Error("failed to save webhook",
			zap.String("payment_num", ev.PaymentID),
			zap.Error(err),
		)
		return nil, err
	}
	return rec, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	_, err := db.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE payment_webhooks
		SET processed_at = NOW(), process_error = NULL
		WHERE id = $1
	`, webhookID)
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	_, err := db.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE payment_webhooks
		SET process_error = $2
		WHERE id = $1
	`, webhookID, reason)
	return err
}
