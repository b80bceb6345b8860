package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/movakid/shop-backend/pkg/enums"
)

// Entry is one product line in a shopper's cart. Name, price and image
// are snapshotted at add-time so the cart renders without extra lookups.
type Entry struct {
	ProductID uuid.UUID         `json:"product_id"`
	SKU       string            `json:"sku"`
	Name      string            `json:"name"`
	Price     decimal.Decimal   `json:"price"`
	Quantity  int               `json:"quantity"`
	Type      enums.ProductType `json:"type"`
	ImageURL  *string           `json:"image_url,omitempty"`
}

// AppliedDiscount records the single code active on the cart. The
// discount amount is derived from the live subtotal at summary time,
// never stored.
type AppliedDiscount struct {
	Code  string             `json:"code"`
	Type  enums.DiscountType `json:"type"`
	Value decimal.Decimal    `json:"value"`
}

// Cart is the per-session shopping cart value object. It travels
// through handlers explicitly and is persisted by a Store.
type Cart struct {
	Entries  []Entry          `json:"entries"`
	Discount *AppliedDiscount `json:"discount,omitempty"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{Entries: []Entry{}}
}

// IsEmpty reports whether the cart holds no entries.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Entries) == 0
}

// ItemCount returns the total unit count across all entries.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	count := 0
	for _, entry := range c.Entries {
		count += entry.Quantity
	}
	return count
}

// Subtotal returns the undiscounted sum of price times quantity.
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	if c == nil {
		return subtotal
	}
	for _, entry := range c.Entries {
		subtotal = subtotal.Add(entry.Price.Mul(decimal.NewFromInt(int64(entry.Quantity))))
	}
	return subtotal
}

// entryIndex returns the position of the product's entry, or -1.
func (c *Cart) entryIndex(productID uuid.UUID) int {
	for i, entry := range c.Entries {
		if entry.ProductID == productID {
			return i
		}
	}
	return -1
}
