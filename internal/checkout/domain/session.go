package domain

import "time"

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "PENDING"
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

func (s SessionStatus) String() string {
	return string(s)
}

// SnapshotItem is one cart line frozen at checkout time.
type SnapshotItem struct {
	ItemID    string  `json:"item_id"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// CartSnapshot freezes everything pricing needs so the completed order is
// immune to later cart or coupon mutations.
type CartSnapshot struct {
	Items      []SnapshotItem `json:"items"`
	CouponCode string         `json:"coupon_code,omitempty"`
	Subtotal   float64        `json:"subtotal"`
	Total      float64        `json:"total"`
	Currency   string         `json:"currency"`
	CapturedAt time.Time      `json:"captured_at"`
}

// Session is the durable record of one provider checkout. Its ID is the
// provider-issued session id and doubles as the idempotency key for
// completion: the Pending to Completed transition happens exactly once.
type Session struct {
	ID        string
	UserID    string
	Snapshot  CartSnapshot
	Status    SessionStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
