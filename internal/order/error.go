package order

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidOrderStatus  = errors.New("invalid order status")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrEmptyOrder          = errors.New("order has no lines")
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrMileageExceedsTotal = errors.New("used mileage exceeds order amount")
	ErrFailedCreateOrder   = errors.New("failed to create order")
)
