package products

import (
	"regexp"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CategorySale selects products that currently carry a sale price.
const CategorySale = "sale"

var categoryIDPattern = regexp.MustCompile(`^[0-9a-fA-F-]{36}$`)

// ListFilters describe the browse query. A category value is either "sale", a
// category id, or a category name matched case-insensitively.
type ListFilters struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     enums.ProductSort
}

type categoryKind int

const (
	categoryNone categoryKind = iota
	categorySale
	categoryByID
	categoryByName
)

func classifyCategory(raw string) (categoryKind, string) {
	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		return categoryNone, ""
	case strings.EqualFold(value, CategorySale):
		return categorySale, ""
	case categoryIDPattern.MatchString(value):
		return categoryByID, value
	default:
		return categoryByName, value
	}
}

// RelatedLimit and FeaturedLimit cap the short product rails.
const (
	FeaturedLimit = 4
	RelatedLimit  = 4
)
