package checkout

import "errors"

var (
	ErrPaymentAmountMismatch = errors.New("payment amount mismatch")
	ErrPaymentNotPaid        = errors.New("payment is not completed")
	ErrEmptyPaymentID        = errors.New("payment id is required")

	// ErrRefundFailed wraps the gateway error of a refund that did not go
	// through. The order it concerns is left in place.
	ErrRefundFailed = errors.New("refund failed")

	// ErrCleanupFailed means the refund went through but the TEMP order and
	// its mileage are still in place.
	ErrCleanupFailed = errors.New("refunded but temp order cleanup failed")
)
