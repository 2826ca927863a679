package mileage

import "time"

// Content tags what a ledger entry was recorded for. An order holds at most
// one entry per content.
type Content string

const (
	ContentUsedDeduction     Content = "USED_MILEAGE_DEDUCTION"
	ContentPaymentAccumulate Content = "PAYMENT_MILEAGE_ACCUMULATE"
)

type Entry struct {
	ID        int64     `json:"id"`
	OrderNum  string    `json:"order_num"`
	AuthID    string    `json:"auth_id"`
	Point     int64     `json:"point"`
	Content   Content   `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
