package cart

import "time"

// Owner identifies a cart: a signed-in member or an anonymous browser cookie,
// never both.
type Owner struct {
	MemberID int64
	CookieID string
}

func MemberOwner(memberID int64) Owner { return Owner{MemberID: memberID} }

func CookieOwner(cookieID string) Owner { return Owner{CookieID: cookieID} }

func (o Owner) Valid() bool {
	return (o.MemberID > 0) != (o.CookieID != "")
}

func (o Owner) IsMember() bool { return o.MemberID > 0 }

type Cart struct {
	ID        int64      `json:"id"`
	MemberID  *int64     `json:"member_id,omitempty"`
	CookieID  *string    `json:"-"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is one (item, size) line of a cart. Size is empty for items sold
// without size variants.
type CartItem struct {
	ID       int64  `json:"id"`
	CartID   int64  `json:"cart_id"`
	ItemID   int64  `json:"item_id"`
	Quantity int64  `json:"quantity"`
	Size     string `json:"size,omitempty"`
}

// Line is one requested (item, quantity, size) entry.
type Line struct {
	ItemID   int64  `json:"item_id"`
	Quantity int64  `json:"quantity"`
	Size     string `json:"size,omitempty"`
}

// View is the read model rendered on the cart page; lines of the same item
// are grouped with their size options.
type View struct {
	CartID        int64      `json:"cart_id"`
	Items         []ViewItem `json:"items"`
	TotalAmount   int64      `json:"total_amount"`
	TotalQuantity int64      `json:"total_quantity"`
}

type ViewItem struct {
	ItemID  int64        `json:"item_id"`
	Name    string       `json:"name"`
	Price   int64        `json:"price"`
	Options []ViewOption `json:"options"`
}

type ViewOption struct {
	Size     string `json:"size,omitempty"`
	Quantity int64  `json:"quantity"`
}

// OrderSummary is what the order form is pre-filled with.
type OrderSummary struct {
	Lines         []SummaryLine `json:"lines"`
	TotalAmount   int64         `json:"total_amount"`
	TotalQuantity int64         `json:"total_quantity"`
}

type SummaryLine struct {
	ItemID   int64  `json:"item_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Size     string `json:"size,omitempty"`
	Quantity int64  `json:"quantity"`
	Amount   int64  `json:"amount"`
}
