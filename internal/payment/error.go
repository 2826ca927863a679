package payment

import (
	"errors"
	"fmt"
)

var (
	ErrGateway                   = errors.New("payment gateway error")
	ErrPaymentNotFound           = errors.New("payment not found")
	ErrInvalidWebhookToken       = errors.New("invalid webhook token")
	ErrWebhookTokenNotConfigured = errors.New("webhook token is not configured")
	ErrMissingCredentials        = errors.New("gateway credentials are not configured")
)

// GatewayError is any failed exchange with the payment provider: transport
// failure, non-2xx status, a non-zero provider code or an open breaker.
// It matches ErrGateway under errors.Is.
type GatewayError struct {
	Op      string
	Code    int
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("gateway %s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("gateway %s: code %d: %s", e.Op, e.Code, e.Message)
	}
}

func (e *GatewayError) Unwrap() error { return e.Err }

func (e *GatewayError) Is(target error) bool { return target == ErrGateway }

// providerRejected reports whether the provider answered and refused, as
// opposed to being unreachable.
func (e *GatewayError) providerRejected() bool {
	return e.Err == nil && e.Code != 0
}
