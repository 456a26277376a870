package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one product variant held in a cart. Lines are unique by
// (ProductID, VariantKey).
type Line struct {
	ProductID  uuid.UUID           `json:"productId"`
	VariantKey string              `json:"variantKey,omitempty"`
	Name       string              `json:"name"`
	Image      string              `json:"image,omitempty"`
	Size       string              `json:"size,omitempty"`
	Color      string              `json:"color,omitempty"`
	Quantity   int                 `json:"quantity"`
	UnitPrice  decimal.Decimal     `json:"unitPrice"`
	SalePrice  decimal.NullDecimal `json:"salePrice"`
}

// EffectivePrice is the sale price when present, otherwise the unit price.
func (l Line) EffectivePrice() decimal.Decimal {
	if l.SalePrice.Valid {
		return l.SalePrice.Decimal
	}
	return l.UnitPrice
}

// LineTotal is the effective price times quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) matches(productID uuid.UUID, variantKey string) bool {
	return l.ProductID == productID && l.VariantKey == variantKey
}

// VariantKey derives the variant discriminator from the chosen size and color.
// A product without options has the empty key.
func VariantKey(size, color string) string {
	size = strings.ToLower(strings.TrimSpace(size))
	color = strings.ToLower(strings.TrimSpace(color))
	if size == "" && color == "" {
		return ""
	}
	return size + "/" + color
}
