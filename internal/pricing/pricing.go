// Package pricing holds the fixed-point money arithmetic for carts and
// orders. All amounts are decimal with two fractional digits; rounding is
// half-up and applied once at the point of computation, never accumulated
// from repeated floating operations.
package pricing

import "github.com/shopspring/decimal"

var (
	// TaxRate is the consumption tax applied to the order subtotal.
	TaxRate = decimal.NewFromFloat(0.10)
	// FreeShippingThreshold is the subtotal at or above which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(5000)
	// FlatShippingFee is charged on orders below the free-shipping threshold.
	FlatShippingFee = decimal.NewFromInt(500)
)

// Round rounds an amount to two fractional digits, half up.
// decimal.Round rounds half away from zero, which is half-up for the
// non-negative amounts handled here.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// LineTotal computes unit price times quantity, rounded once.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// Tax computes the tax amount on a subtotal, rounded once.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return Round(subtotal.Mul(TaxRate))
}

// ShippingFee returns the shipping amount for a subtotal.
func ShippingFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingFee
}

// OrderTotal sums subtotal, tax and shipping, rounded once.
func OrderTotal(subtotal, tax, shipping decimal.Decimal) decimal.Decimal {
	return Round(subtotal.Add(tax).Add(shipping))
}
