package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnavailableProductName is shown when an item's product no longer resolves.
const UnavailableProductName = "Product unavailable"

// OrderView is an order as shown in the account history.
type OrderView struct {
	ID            uuid.UUID         `json:"id"`
	Total         decimal.Decimal   `json:"total"`
	Status        enums.OrderStatus `json:"status"`
	CustomerEmail *string           `json:"customerEmail,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	Items         []ItemView        `json:"items"`
}

// ItemView is one purchased line with the product's display fields.
type ItemView struct {
	ID       uuid.UUID       `json:"id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Product  ProductSummary  `json:"product"`
}

type ProductSummary struct {
	ID        *uuid.UUID       `json:"id"`
	Name      string           `json:"name"`
	Image     string           `json:"image,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	SalePrice *decimal.Decimal `json:"salePrice,omitempty"`
	Available bool             `json:"available"`
}

// Service is the read side of order history.
type Service struct {
	repo Repository
}

func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &Service{repo: repo}, nil
}

// ListForUser returns every order of the user, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, toOrderView(&orders[i]))
	}
	return views, nil
}

// GetForUser returns one order when it belongs to the user.
func (s *Service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderView, error) {
	order, err := s.repo.FindForUser(ctx, userID, orderID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get order")
	}
	view := toOrderView(order)
	return &view, nil
}

func toOrderView(o *models.Order) OrderView {
	items := make([]ItemView, 0, len(o.Items))
	for i := range o.Items {
		items = append(items, toItemView(&o.Items[i]))
	}
	return OrderView{
		ID:            o.ID,
		Total:         o.Total,
		Status:        o.Status,
		CustomerEmail: o.CustomerEmail,
		CreatedAt:     o.CreatedAt,
		Items:         items,
	}
}

func toItemView(it *models.OrderItem) ItemView {
	summary := ProductSummary{ID: it.ProductID, Name: UnavailableProductName}
	if p := it.Product; p != nil {
		price := p.Price
		summary = ProductSummary{
			ID:        it.ProductID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     &price,
			Available: true,
		}
		if p.SalePrice.Valid {
			sale := p.SalePrice.Decimal
			summary.SalePrice = &sale
		}
	}
	return ItemView{
		ID:       it.ID,
		Quantity: it.Quantity,
		Price:    it.Price,
		Product:  summary,
	}
}
