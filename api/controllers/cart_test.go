package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type catalogLookup map[uuid.UUID]*models.Product

func (c catalogLookup) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := c[id]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func newCartHarness(t *testing.T) (*cart.Service, *models.Product) {
	t.Helper()
	hoodie := &models.Product{
		ID:     uuid.New(),
		Name:   "Hoodie",
		Price:  decimal.RequireFromString("60"),
		Sizes:  pq.StringArray{"M", "L"},
		Colors: pq.StringArray{"Grey"},
	}
	svc, err := cart.NewService(cart.NewMemoryPersister(), catalogLookup{hoodie.ID: hoodie}, nil)
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	return svc, hoodie
}

func withSlot(req *http.Request, slot string) *http.Request {
	return req.WithContext(middleware.WithCartSession(req.Context(), slot))
}

func TestCartAddUpdateRemove(t *testing.T) {
	svc, hoodie := newCartHarness(t)

	add := withSlot(httptest.NewRequest(http.MethodPost, "/cart/items",
		jsonBody(`{"productId":"`+hoodie.ID.String()+`","size":"L","color":"Grey","quantity":1}`)), "slot-abcdef")
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, add)
	if resp.Code != http.StatusOK {
		t.Fatalf("add: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var view cart.View
	decodeData(t, resp, &view)
	if len(view.Lines) != 1 || view.Lines[0].VariantKey != "l/grey" {
		t.Fatalf("unexpected view %+v", view)
	}

	update := withSlot(httptest.NewRequest(http.MethodPatch, "/cart/items/"+hoodie.ID.String(),
		jsonBody(`{"variantKey":"l/grey","quantity":2}`)), "slot-abcdef")
	resp = serveRoute(http.MethodPatch, "/cart/items/{productId}", CartUpdateItem(svc, nil), update)
	decodeData(t, resp, &view)
	if view.Lines[0].Quantity != 2 || !view.Summary.Subtotal.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("unexpected view after update %+v", view)
	}
	if !view.Summary.Shipping.IsZero() {
		t.Fatalf("expected free shipping over 100, got %s", view.Summary.Shipping)
	}

	summary := withSlot(httptest.NewRequest(http.MethodGet, "/cart/summary?includeTax=true", nil), "slot-abcdef")
	resp = httptest.NewRecorder()
	CartSummary(svc, nil).ServeHTTP(resp, summary)
	var s cart.Summary
	decodeData(t, resp, &s)
	if !s.Tax.Equal(decimal.RequireFromString("8.4")) {
		t.Fatalf("expected tax 8.40, got %s", s.Tax)
	}

	remove := withSlot(httptest.NewRequest(http.MethodDelete, "/cart/items/"+hoodie.ID.String()+"?variant=l/grey", nil), "slot-abcdef")
	resp = serveRoute(http.MethodDelete, "/cart/items/{productId}", CartRemoveItem(svc, nil), remove)
	decodeData(t, resp, &view)
	if len(view.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", view.Lines)
	}
}

func TestCartAddRejectsUnknownOption(t *testing.T) {
	svc, hoodie := newCartHarness(t)
	req := withSlot(httptest.NewRequest(http.MethodPost, "/cart/items",
		jsonBody(`{"productId":"`+hoodie.ID.String()+`","size":"XXL","quantity":1}`)), "slot-abcdef")
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	req = withSlot(httptest.NewRequest(http.MethodPost, "/cart/items",
		jsonBody(`{"productId":"`+hoodie.ID.String()+`","quantity":0}`)), "slot-abcdef")
	resp = httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity got %d", resp.Code)
	}
}

func TestCartClear(t *testing.T) {
	svc, hoodie := newCartHarness(t)
	ctx := context.Background()
	if _, err := svc.AddItem(ctx, "slot-abcdef", cart.AddItemInput{ProductID: hoodie.ID, Size: "M", Color: "Grey", Quantity: 1}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp := httptest.NewRecorder()
	CartClear(svc, nil).ServeHTTP(resp, withSlot(httptest.NewRequest(http.MethodDelete, "/cart", nil), "slot-abcdef"))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	view, _ := svc.Get(ctx, "slot-abcdef", false)
	if len(view.Lines) != 0 {
		t.Fatalf("expected cart cleared")
	}
}
