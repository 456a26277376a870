package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/validators"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CatalogService is the read surface of the product catalog.
type CatalogService interface {
	List(ctx context.Context, filters product.ListFilters) ([]models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Featured(ctx context.Context) ([]models.Product, error)
	Related(ctx context.Context, id uuid.UUID) ([]models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

// ProductList serves GET /products with category, minPrice, maxPrice and sort filters.
func ProductList(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "product")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseProductFilters(r)
		if err != nil {
			respond(w, r, logg, 0, nil, err)
			return
		}
		list, err := svc.List(r.Context(), filters)
		respond(w, r, logg, http.StatusOK, product.FromModels(list), err)
	}
}

func ProductFeatured(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "product")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Featured(r.Context())
		respond(w, r, logg, http.StatusOK, product.FromModels(list), err)
	}
}

func ProductDetail(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return byProductID(svc, logg, func(ctx context.Context, id uuid.UUID) (any, error) {
		p, err := svc.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return product.FromModel(p), nil
	})
}

// ProductRelated lists up to four other products from the same category.
func ProductRelated(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return byProductID(svc, logg, func(ctx context.Context, id uuid.UUID) (any, error) {
		list, err := svc.Related(ctx, id)
		if err != nil {
			return nil, err
		}
		return product.FromModels(list), nil
	})
}

func CategoryList(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "product")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.Categories(r.Context())
		respond(w, r, logg, http.StatusOK, product.CategoriesFromModels(categories), err)
	}
}

func byProductID(svc CatalogService, logg *logger.Logger, load func(context.Context, uuid.UUID) (any, error)) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "product")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId")
		if err != nil {
			respond(w, r, logg, 0, nil, err)
			return
		}
		result, err := load(r.Context(), id)
		respond(w, r, logg, http.StatusOK, result, err)
	}
}

func parseProductFilters(r *http.Request) (product.ListFilters, error) {
	q := validators.NewQuery(r)
	filters := product.ListFilters{
		Category: q.String("category", 100),
		MinPrice: q.Money("minPrice"),
		MaxPrice: q.Money("maxPrice"),
	}
	if err := q.Err(); err != nil {
		return filters, err
	}
	sort, err := product.ParseSort(r.URL.Query().Get("sort"))
	filters.Sort = sort
	return filters, err
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name).
			WithDetails(map[string]any{"field": name})
	}
	return id, nil
}
