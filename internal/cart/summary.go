package cart

import (
	"github.com/shopspring/decimal"

	"github.com/movakid/shop-backend/pkg/config"
	"github.com/movakid/shop-backend/pkg/enums"
)

// Summary holds the computed cart totals. All values are exact
// decimals; rounding to two places happens only when totals are
// persisted or converted to minor units for a payment provider.
type Summary struct {
	ItemCount      int              `json:"item_count"`
	Subtotal       decimal.Decimal  `json:"subtotal"`
	DiscountCode   *string          `json:"discount_code,omitempty"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	Tax            decimal.Decimal  `json:"tax"`
	Shipping       decimal.Decimal  `json:"shipping"`
	Total          decimal.Decimal  `json:"total"`
}

// Summarize computes totals for the cart under the store's pricing
// rules. Percentage and fixed discounts reduce the subtotal before tax
// and shipping are derived; a free_shipping discount only zeroes the
// shipping line.
func Summarize(c *Cart, store config.StoreConfig) Summary {
	subtotal := c.Subtotal()
	summary := Summary{
		ItemCount:      c.ItemCount(),
		Subtotal:       subtotal,
		DiscountAmount: decimal.Zero,
	}

	effective := subtotal
	freeShipping := false
	if c != nil && c.Discount != nil {
		code := c.Discount.Code
		summary.DiscountCode = &code
		switch c.Discount.Type {
		case enums.DiscountTypePercentage:
			summary.DiscountAmount = subtotal.Mul(c.Discount.Value).Div(decimal.NewFromInt(100))
		case enums.DiscountTypeFixed:
			summary.DiscountAmount = decimal.Min(c.Discount.Value, subtotal)
		case enums.DiscountTypeFreeShipping:
			freeShipping = true
		}
		effective = subtotal.Sub(summary.DiscountAmount)
	}

	summary.Tax = effective.Mul(store.VATRate)

	switch {
	case c.IsEmpty():
		summary.Shipping = decimal.Zero
	case freeShipping:
		summary.Shipping = decimal.Zero
	case effective.GreaterThanOrEqual(store.FreeShippingThreshold):
		summary.Shipping = decimal.Zero
	default:
		summary.Shipping = store.ShippingCost
	}

	summary.Total = effective.Add(summary.Tax).Add(summary.Shipping)
	return summary
}
