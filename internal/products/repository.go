package products

import (
	"context"
	"errors"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads the product catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List applies the browse filters. An unknown category name leaves the
// category unfiltered.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})

	switch kind, value := classifyCategory(filters.Category); kind {
	case categorySale:
		q = q.Where("sale_price IS NOT NULL")
	case categoryByID:
		q = q.Where("category_id = ?", value)
	case categoryByName:
		id, err := r.categoryIDByName(ctx, value)
		if err != nil {
			return nil, err
		}
		if id != nil {
			q = q.Where("category_id = ?", *id)
		}
	}

	if filters.MinPrice != nil {
		q = q.Where("price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		q = q.Where("price <= ?", *filters.MaxPrice)
	}

	var products []models.Product
	if err := applySort(q, filters.Sort).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByID loads one product with its category.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Featured returns the first products in catalog order.
func (r *Repository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := applySort(r.db.WithContext(ctx), "").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Related returns products of the category other than the excluded one.
func (r *Repository) Related(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]models.Product, error) {
	var products []models.Product
	err := applySort(r.db.WithContext(ctx), "").
		Where("category_id = ? AND id <> ?", categoryID, excludeID).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Categories returns every category ordered by name.
func (r *Repository) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *Repository) categoryIDByName(ctx context.Context, name string) (*uuid.UUID, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category.ID, nil
}

func applySort(q *gorm.DB, sort enums.ProductSort) *gorm.DB {
	switch sort {
	case enums.ProductSortPriceAsc:
		return q.Order("price ASC").Order("id ASC")
	case enums.ProductSortPriceDesc:
		return q.Order("price DESC").Order("id ASC")
	case enums.ProductSortNewest:
		return q.Order("created_at DESC").Order("id ASC")
	case enums.ProductSortPopular:
		return q.Order("review_count DESC").Order("rating DESC").Order("id ASC")
	default:
		return q.Order("created_at ASC").Order("id ASC")
	}
}
