package rest

import (
	"net/http"
	"strings"
)

type validatePaymentRequest struct {
	PaymentID  string `json:"imp_uid"`
	MerchantID string `json:"merchant_uid,omitempty"`
}

// ValidatePayment is called by the storefront once the gateway window
// closes. The amount is never taken from the client; it is read back from
// the gateway.
func (h *Handler) ValidatePayment(w http.ResponseWriter, r *http.Request) {
	var req validatePaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, "invalid payment request")
		return
	}

	res, err := h.reconciler.Confirm(r.Context(), strings.TrimSpace(req.PaymentID), authIDOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
