package domain

import (
	"math"
	"time"
)

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	UserID    string     `bson:"user_id" json:"userId"`
	Items     []CartItem `bson:"items" json:"items"`
	ClearedAt *time.Time `bson:"cleared_at,omitempty" json:"clearedAt,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
}

type CartItem struct {
	ProductID string    `bson:"product_id" json:"productId"`
	Name      string    `bson:"name" json:"name"`
	UnitPrice float64   `bson:"unit_price" json:"unitPrice"`
	Image     string    `bson:"image,omitempty" json:"image,omitempty"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"addedAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// TotalItems sums quantities over the current items. Derived, never stored.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice sums unit price x quantity over the current items,
// rounded to two decimal places. Derived, never stored.
func (c *Cart) TotalPrice() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return Round2(total)
}

// Item returns a pointer into Items for the given product, or nil.
func (c *Cart) Item(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// Round2 rounds a monetary amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
