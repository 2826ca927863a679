package order

import "time"

type Status string

const (
	StatusTemp      Status = "TEMP"
	StatusPaid      Status = "PAID"
	StatusShipping  Status = "SHIPPING"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusTemp:     {StatusPaid, StatusCancelled},
	StatusPaid:     {StatusShipping, StatusCancelled},
	StatusShipping: {StatusDelivered},
}

// CanTransitionTo reports whether next is reachable from s in one step.
// CANCELLED and DELIVERED are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, st := range transitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

type DeliveryStatus string

const DeliveryReady DeliveryStatus = "DELIVERY_READY"

type Orderer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Delivery struct {
	Recipient      string         `json:"recipient"`
	RecipientPhone string         `json:"recipient_phone"`
	PostCode       string         `json:"post_code"`
	RoadAddress    string         `json:"road_address"`
	DetailAddress  string         `json:"detail_address"`
	Memo           string         `json:"memo"`
	Status         DeliveryStatus `json:"status"`
}

// ItemLine is the snapshot of a catalog item taken when the order is placed.
type ItemLine struct {
	ID       int64
	ItemID   int64
	Name     string
	Price    int64
	Quantity int64
}

func (l *ItemLine) Base() *ItemLine { return l }

func (l *ItemLine) Amount() int64 { return l.Price * l.Quantity }

// Item is an order line. Clothes lines carry the size they were ordered in.
type Item interface {
	Base() *ItemLine
	SizeLabel() (string, bool)
}

type PlainItem struct {
	ItemLine
}

func (*PlainItem) SizeLabel() (string, bool) { return "", false }

type ClothesItem struct {
	ItemLine
	Size string
}

func (c *ClothesItem) SizeLabel() (string, bool) { return c.Size, true }

type Order struct {
	ID             int64
	OrderNum       string
	MemberID       int64
	AuthID         string
	Orderer        Orderer
	Delivery       Delivery
	DeliveryAmount int64
	Items          []Item
	Status         Status
	PaymentNum     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (o *Order) ItemsAmount() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.Base().Amount()
	}
	return total
}

// Pay moves a TEMP order to PAID and records the gateway payment id.
func (o *Order) Pay(paymentNum string) error {
	if o.Status != StatusTemp {
		return ErrInvalidOrderStatus
	}
	o.Status = StatusPaid
	o.PaymentNum = &paymentNum
	return nil
}

func (o *Order) Cancel() error {
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return ErrInvalidOrderStatus
	}
	o.Status = StatusCancelled
	return nil
}

// PaidWith reports whether the order is PAID by the given gateway payment.
func (o *Order) PaidWith(paymentNum string) bool {
	return o.Status == StatusPaid && o.PaymentNum != nil && *o.PaymentNum == paymentNum
}

type LineRequest struct {
	ItemID   int64  `json:"item_id"`
	Quantity int64  `json:"quantity"`
	Size     string `json:"size"`
}

// CreateRequest is an order form submission. Blank orderer fields fall back
// to the member profile.
type CreateRequest struct {
	Lines      []LineRequest `json:"lines"`
	Orderer    Orderer       `json:"orderer"`
	Delivery   Delivery      `json:"delivery"`
	UseMileage int64         `json:"use_mileage"`
}

type Summary struct {
	OrderNum    string    `json:"order_num"`
	Title       string    `json:"title"`
	Status      Status    `json:"status"`
	TotalAmount int64     `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type Page struct {
	Orders []Summary `json:"orders"`
	Page   int       `json:"page"`
	Size   int       `json:"size"`
	Total  int64     `json:"total"`
}

type DetailItem struct {
	ItemID   int64   `json:"item_id"`
	Name     string  `json:"name"`
	Price    int64   `json:"price"`
	Quantity int64   `json:"quantity"`
	Size     *string `json:"size,omitempty"`
	Amount   int64   `json:"amount"`
}

type PaymentInfo struct {
	PaymentNum string `json:"payment_num"`
	Method     string `json:"method"`
	Amount     int64  `json:"amount"`
	Status     string `json:"status"`
}

type Detail struct {
	OrderNum       string       `json:"order_num"`
	Status         Status       `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	Orderer        Orderer      `json:"orderer"`
	Delivery       Delivery     `json:"delivery"`
	Items          []DetailItem `json:"items"`
	Payment        *PaymentInfo `json:"payment,omitempty"`
	ItemsAmount    int64        `json:"items_amount"`
	DeliveryAmount int64        `json:"delivery_amount"`
	UsedMileage    int64        `json:"used_mileage"`
	EarnedMileage  int64        `json:"earned_mileage"`
	TotalAmount    int64        `json:"total_amount"`
}
