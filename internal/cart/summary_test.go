package cart

import (
	"testing"

	"github.com/google/uuid"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		lines    []Line
		withTax  bool
		subtotal string
		shipping string
		tax      string
		total    string
	}{
		{
			name:     "under threshold pays flat shipping",
			lines:    []Line{{ProductID: uuid.New(), Quantity: 2, UnitPrice: price("25")}},
			subtotal: "50", shipping: "10", tax: "0", total: "60",
		},
		{
			name:     "exactly 100 still pays shipping",
			lines:    []Line{{ProductID: uuid.New(), Quantity: 1, UnitPrice: price("100")}},
			subtotal: "100", shipping: "10", tax: "0", total: "110",
		},
		{
			name:     "over threshold ships free with tax",
			lines:    []Line{{ProductID: uuid.New(), Quantity: 1, UnitPrice: price("120"), SalePrice: salePrice("101.50")}},
			withTax:  true,
			subtotal: "101.5", shipping: "0", tax: "7.11", total: "108.61",
		},
		{
			name:     "empty cart",
			subtotal: "0", shipping: "0", tax: "0", total: "0",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Summarize(tc.lines, tc.withTax)
			check := func(field string, have interface{ String() string }, want string) {
				if have.String() != price(want).String() {
					t.Fatalf("%s: expected %s, got %s", field, want, have.String())
				}
			}
			check("subtotal", got.Subtotal, tc.subtotal)
			check("shipping", got.Shipping, tc.shipping)
			check("tax", got.Tax, tc.tax)
			check("total", got.Total, tc.total)
		})
	}
}
