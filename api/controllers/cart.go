package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CartService runs operations against the slot named by X-Cart-Session.
type CartService interface {
	Get(ctx context.Context, slot string, withTax bool) (*cart.View, error)
	AddItem(ctx context.Context, slot string, input cart.AddItemInput) (*cart.View, error)
	UpdateQuantity(ctx context.Context, slot string, productID uuid.UUID, variantKey string, quantity int) (*cart.View, error)
	RemoveItem(ctx context.Context, slot string, productID uuid.UUID, variantKey string) (*cart.View, error)
	Clear(ctx context.Context, slot string) error
}

type addCartItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Size      string `json:"size" validate:"max=50"`
	Color     string `json:"color" validate:"max=50"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=99"`
}

// updateCartItemRequest allows zero and negative quantities; the line is kept
// as is and the summary reflects it.
type updateCartItemRequest struct {
	VariantKey string `json:"variantKey" validate:"max=101"`
	Quantity   int    `json:"quantity"`
}

// CartGet returns the lines and summary. includeTax=true adds the estimated tax.
func CartGet(svc CartService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "cart")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		withTax, err := includeTax(r)
		if err != nil {
			respond(w, r, logg, 0, nil, err)
			return
		}
		view, err := svc.Get(r.Context(), slotOf(r), withTax)
		respond(w, r, logg, http.StatusOK, view, err)
	}
}

// CartSummary returns only the order summary for the checkout page.
func CartSummary(svc CartService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "cart")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		withTax, err := includeTax(r)
		if err != nil {
			respond(w, r, logg, 0, nil, err)
			return
		}
		view, err := svc.Get(r.Context(), slotOf(r), withTax)
		if err != nil {
			respond(w, r, logg, 0, nil, err)
			return
		}
		respond(w, r, logg, http.StatusOK, view.Summary, nil)
	}
}

func CartAddItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "cart")
	}
	return withBody(logg, func(w http.ResponseWriter, r *http.Request, body addCartItemRequest) {
		productID, err := uuid.Parse(body.ProductID)
		if err != nil {
			respond(w, r, logg, 0, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid productId"))
			return
		}
		view, err := svc.AddItem(r.Context(), slotOf(r), cart.AddItemInput{
			ProductID: productID,
			Size:      validators.SanitizeString(body.Size, 50),
			Color:     validators.SanitizeString(body.Color, 50),
			Quantity:  body.Quantity,
		})
		respond(w, r, logg, http.StatusOK, view, err)
	})
}

func CartUpdateItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "cart")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			respond(w, r, logg, 0, nil, err)
			return
		}
		withBody(logg, func(w http.ResponseWriter, r *http.Request, body updateCartItemRequest) {
			view, err := svc.UpdateQuantity(r.Context(), slotOf(r), productID, strings.TrimSpace(body.VariantKey), body.Quantity)
			respond(w, r, logg, http.StatusOK, view, err)
		})(w, r)
	}
}

// CartRemoveItem deletes the line; the variant query parameter selects a
// size/color variant.
func CartRemoveItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "cart")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			respond(w, r, logg, 0, nil, err)
			return
		}
		variant := validators.SanitizeString(r.URL.Query().Get("variant"), 101)
		view, err := svc.RemoveItem(r.Context(), slotOf(r), productID, variant)
		respond(w, r, logg, http.StatusOK, view, err)
	}
}

func CartClear(svc CartService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "cart")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context(), slotOf(r)); err != nil {
			respond(w, r, logg, 0, nil, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func slotOf(r *http.Request) string {
	return middleware.CartSessionFromContext(r.Context())
}

func includeTax(r *http.Request) (bool, error) {
	q := validators.NewQuery(r)
	withTax := q.Bool("includeTax")
	return withTax, q.Err()
}
