package payment

import (
	"encoding/json"
	"time"
)

const (
	StatusReady     = "ready"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// Payment is the local record of a reconciled gateway payment.
type Payment struct {
	ID           int64     `json:"id"`
	PaymentNum   string    `json:"payment_num"`
	OrderNum     string    `json:"order_num"`
	Method       string    `json:"method"`
	Status       string    `json:"status"`
	Amount       int64     `json:"amount"`
	OrderName    string    `json:"order_name"`
	CancelAmount int64     `json:"cancel_amount"`
	CreatedAt    time.Time `json:"created_at"`
}

// GatewayReport is what the gateway says about a payment. MerchantID is the
// order number the client passed when opening the payment window.
type GatewayReport struct {
	PaymentID  string `json:"imp_uid"`
	MerchantID string `json:"merchant_uid"`
	Amount     int64  `json:"amount"`
	Status     string `json:"status"`
	Method     string `json:"pay_method"`
	Name       string `json:"name"`
}

type CancelResult struct {
	PaymentID    string `json:"imp_uid"`
	MerchantID   string `json:"merchant_uid"`
	CancelAmount int64  `json:"cancel_amount"`
}

// WebhookEvent is the notification body the gateway posts.
type WebhookEvent struct {
	PaymentID  string `json:"imp_uid"`
	MerchantID string `json:"merchant_uid"`
	Status     string `json:"status"`
}

type WebhookRecord struct {
	ID        int64
	Processed bool
	Payload   json.RawMessage
}
