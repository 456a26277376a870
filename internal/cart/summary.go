package cart

import "github.com/shopspring/decimal"

var (
	freeShippingOver = decimal.NewFromInt(100)
	flatShipping     = decimal.NewFromInt(10)
	taxRate          = decimal.RequireFromString("0.07")
)

// Summary is the display quote for a cart. The order total is always the
// amount reported by the payment processor.
type Summary struct {
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

// Summarize computes the quote. Shipping is free above 100; tax is only added
// when withTax is set.
func Summarize(lines []Line, withTax bool) Summary {
	subtotal := totalOf(lines)
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}

	shipping := flatShipping
	if subtotal.GreaterThan(freeShippingOver) || len(lines) == 0 {
		shipping = decimal.Zero
	}

	tax := decimal.Zero
	if withTax {
		tax = subtotal.Mul(taxRate).Round(2)
	}

	return Summary{
		ItemCount: count,
		Subtotal:  subtotal,
		Shipping:  shipping,
		Tax:       tax,
		Total:     subtotal.Add(shipping).Add(tax),
	}
}
