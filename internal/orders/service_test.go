package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubRepo struct {
	Repository
	list    []models.Order
	listErr error
	found   *models.Order
	findErr error
}

func (s *stubRepo) ListByUser(context.Context, uuid.UUID) ([]models.Order, error) {
	return s.list, s.listErr
}

func (s *stubRepo) FindForUser(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return s.found, s.findErr
}

func TestListForUserFallsBackForMissingProducts(t *testing.T) {
	productID := uuid.New()
	sale := decimal.NullDecimal{Decimal: decimal.RequireFromString("15"), Valid: true}
	repo := &stubRepo{list: []models.Order{{
		ID:     uuid.New(),
		Total:  decimal.RequireFromString("40"),
		Status: enums.OrderStatusPaid,
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: &productID, Quantity: 2, Price: decimal.RequireFromString("30"),
				Product: &models.Product{ID: productID, Name: "Cap", Image: "cap.png", Price: decimal.RequireFromString("20"), SalePrice: sale}},
			{ID: uuid.New(), Quantity: 1, Price: decimal.RequireFromString("10")},
		},
	}}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	views, err := svc.ListForUser(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 || len(views[0].Items) != 2 {
		t.Fatalf("unexpected views %+v", views)
	}

	known := views[0].Items[0].Product
	if !known.Available || known.Name != "Cap" || known.SalePrice == nil || !known.SalePrice.Equal(sale.Decimal) {
		t.Fatalf("unexpected product summary %+v", known)
	}
	gone := views[0].Items[1].Product
	if gone.Available || gone.Name != UnavailableProductName {
		t.Fatalf("expected fallback product, got %+v", gone)
	}
}

func TestListForUserRequiresIdentity(t *testing.T) {
	svc, _ := NewService(&stubRepo{})
	_, err := svc.ListForUser(context.Background(), uuid.Nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestGetForUserMapsErrors(t *testing.T) {
	svc, _ := NewService(&stubRepo{findErr: gorm.ErrRecordNotFound})
	if _, err := svc.GetForUser(context.Background(), uuid.New(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	svc, _ = NewService(&stubRepo{findErr: errors.New("conn reset")})
	if _, err := svc.GetForUser(context.Background(), uuid.New(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal, got %v", err)
	}
}
