package rest

import (
	"errors"
	"net/http"

	"shopmall-be/internal/cart"
	"shopmall-be/internal/catalog"
	"shopmall-be/internal/checkout"
	"shopmall-be/internal/logger"
	"shopmall-be/internal/member"
	"shopmall-be/internal/mileage"
	"shopmall-be/internal/order"
	"shopmall-be/internal/payment"

	"go.uber.org/zap"
)

// Error codes returned to clients.
const (
	CodeNotFound           = "ENTITY_NOT_FOUND"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidOrderStatus = "INVALID_ORDER_STATUS"
	CodeAmountMismatch     = "PAYMENT_AMOUNT_MISMATCH"
	CodePaymentNotPaid     = "PAYMENT_NOT_COMPLETED"
	CodeCartAddItemFailed  = "CART_ADD_ITEM_FAILED"
	CodeInsufficientPoints = "INSUFFICIENT_MILEAGE"
	CodeRefundFailed       = "REFUND_FAILED"
	CodeGatewayError       = "PAYMENT_GATEWAY_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Checked in order. CartAddItemFailed wraps catalog misses, so it comes
// before the not-found group.
var errorMappings = []errorMapping{
	{cart.ErrCartAddItemFailed, http.StatusBadRequest, CodeCartAddItemFailed},

	{cart.ErrCartNotFound, http.StatusNotFound, CodeNotFound},
	{cart.ErrCartItemNotFound, http.StatusNotFound, CodeNotFound},
	{order.ErrOrderNotFound, http.StatusNotFound, CodeNotFound},
	{catalog.ErrItemNotFound, http.StatusNotFound, CodeNotFound},
	{catalog.ErrSizeNotFound, http.StatusNotFound, CodeNotFound},
	{member.ErrMemberNotFound, http.StatusNotFound, CodeNotFound},
	{payment.ErrPaymentNotFound, http.StatusNotFound, CodeNotFound},

	{order.ErrInvalidOrderStatus, http.StatusConflict, CodeInvalidOrderStatus},
	{checkout.ErrPaymentAmountMismatch, http.StatusBadRequest, CodeAmountMismatch},
	{checkout.ErrPaymentNotPaid, http.StatusBadRequest, CodePaymentNotPaid},
	{mileage.ErrInsufficientMileage, http.StatusBadRequest, CodeInsufficientPoints},
	{order.ErrMileageExceedsTotal, http.StatusBadRequest, CodeInsufficientPoints},

	{order.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},

	{checkout.ErrEmptyPaymentID, http.StatusBadRequest, CodeInvalidRequest},
	{cart.ErrInvalidOwner, http.StatusBadRequest, CodeInvalidRequest},
	{cart.ErrInvalidQuantity, http.StatusBadRequest, CodeInvalidRequest},
	{cart.ErrEmptyLines, http.StatusBadRequest, CodeInvalidRequest},
	{order.ErrEmptyOrder, http.StatusBadRequest, CodeInvalidRequest},
	{order.ErrInvalidQuantity, http.StatusBadRequest, CodeInvalidRequest},
	{mileage.ErrInvalidPoint, http.StatusBadRequest, CodeInvalidRequest},
}

// classify maps err to an HTTP status and client code. Gateway failures are
// split so a client can tell a refund that did not go through from a
// payment lookup that failed.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, checkout.ErrRefundFailed):
		return http.StatusBadGateway, CodeRefundFailed
	case errors.Is(err, payment.ErrGateway):
		return http.StatusBadGateway, CodeGatewayError
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)

	msg := err.Error()
	if status >= http.StatusInternalServerError && code == CodeInternal {
		logger.FromCtx(r.Context()).Error("request failed", zap.Error(err))
		msg = http.StatusText(status)
	}

	writeJSON(w, status, ErrorResponse{
		Error:     code,
		Message:   msg,
		Status:    status,
		RequestID: logger.RequestIDFrom(r.Context()),
	})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:     CodeInvalidRequest,
		Message:   msg,
		Status:    http.StatusBadRequest,
		RequestID: logger.RequestIDFrom(r.Context()),
	})
}
