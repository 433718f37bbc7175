package domain

import "time"

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []LineItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"-"`
	UpdatedAt time.Time  `bson:"updated_at" json:"-"`
}

// LineItem references a residence listing. UnitPrice is the listing price
// captured when the item entered the cart; clients never price items.
type LineItem struct {
	ItemID    string    `bson:"item_id" json:"item_id"`
	UnitPrice float64   `bson:"unit_price" json:"unit_price"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"-"`
}

func (c *Cart) Has(itemID string) bool {
	for _, item := range c.Items {
		if item.ItemID == itemID {
			return true
		}
	}
	return false
}

func (c *Cart) Find(itemID string) *LineItem {
	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}
