package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	Description string              `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(10,2);not null"`
	SalePrice   decimal.NullDecimal `gorm:"column:sale_price;type:numeric(10,2)"`
	Image       string              `gorm:"column:image;not null;default:''"`
	CategoryID  *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	Category    *Category           `gorm:"foreignKey:CategoryID"`
	Sizes       pq.StringArray      `gorm:"column:sizes;type:text[];not null;default:'{}'"`
	Colors      pq.StringArray      `gorm:"column:colors;type:text[];not null;default:'{}'"`
	Rating      float64             `gorm:"column:rating;type:numeric(2,1);not null;default:0"`
	ReviewCount int                 `gorm:"column:review_count;not null;default:0"`
	Details     *string             `gorm:"column:details"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice returns the sale price when one is set.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}
