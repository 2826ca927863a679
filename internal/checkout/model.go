package checkout

// Result describes a reconciliation that did not fail.
type Result struct {
	Outcome    string `json:"outcome"`
	OrderNum   string `json:"order_num"`
	PaymentNum string `json:"payment_num"`
	Amount     int64  `json:"amount"`
	Accrued    int64  `json:"accrued_mileage"`
}

const (
	refundReasonMismatch = "payment amount does not match the order"
	refundReasonStatus   = "order is no longer payable"
	refundReasonCancel   = "order cancelled by customer"
)
