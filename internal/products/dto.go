package products

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryDTO is the public shape of a category.
type CategoryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProductDTO is the public shape of a catalog product.
type ProductDTO struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"salePrice"`
	Image       string           `json:"image"`
	CategoryID  *uuid.UUID       `json:"categoryId"`
	Category    *CategoryDTO     `json:"category,omitempty"`
	Sizes       []string         `json:"sizes"`
	Colors      []string         `json:"colors"`
	Rating      float64          `json:"rating"`
	ReviewCount int              `json:"reviewCount"`
	Details     *string          `json:"details,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func FromModel(p *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		CategoryID:  p.CategoryID,
		Sizes:       nonNil(p.Sizes),
		Colors:      nonNil(p.Colors),
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Details:     p.Details,
		CreatedAt:   p.CreatedAt,
	}
	if p.SalePrice.Valid {
		sale := p.SalePrice.Decimal
		dto.SalePrice = &sale
	}
	if p.Category != nil {
		dto.Category = &CategoryDTO{ID: p.Category.ID, Name: p.Category.Name}
	}
	return dto
}

func FromModels(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, FromModel(&products[i]))
	}
	return out
}

func CategoriesFromModels(categories []models.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryDTO{ID: c.ID, Name: c.Name})
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
