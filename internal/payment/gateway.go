package payment

import (
	"context"
	"net/http"
)

// Gateway is the synchronous boundary to the payment provider.
type Gateway interface {
	QueryPayment(ctx context.Context, paymentID string) (*GatewayReport, error)
	Cancel(ctx context.Context, paymentID string, amount int64, reason string) (*CancelResult, error)
	VerifyWebhook(r *http.Request) error
}
