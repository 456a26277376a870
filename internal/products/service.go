package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type catalogRepository interface {
	List(ctx context.Context, filters ListFilters) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Featured(ctx context.Context, limit int) ([]models.Product, error)
	Related(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

// Service exposes the catalog read paths.
type Service struct {
	repo catalogRepository
}

func NewService(repo catalogRepository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &Service{repo: repo}, nil
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]models.Product, error) {
	if filters.Sort != "" && !filters.Sort.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid sort %q", filters.Sort))
	}
	if filters.MinPrice != nil && filters.MaxPrice != nil && filters.MinPrice.GreaterThan(*filters.MaxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minPrice must not exceed maxPrice")
	}
	products, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get product")
	}
	return product, nil
}

func (s *Service) Featured(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.Featured(ctx, FeaturedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "featured products")
	}
	return products, nil
}

// Related loads the product and returns others from its category. A product
// without a category has no related products.
func (s *Service) Related(ctx context.Context, id uuid.UUID) ([]models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.CategoryID == nil {
		return []models.Product{}, nil
	}
	products, err := s.repo.Related(ctx, *product.CategoryID, product.ID, RelatedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "related products")
	}
	return products, nil
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return categories, nil
}

// ParseSort validates the raw sort query value.
func ParseSort(raw string) (enums.ProductSort, error) {
	sort, err := enums.ParseProductSort(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	return sort, nil
}
