package checkout

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	pkgstripe "github.com/angelmondragon/storefront-backend/pkg/stripe"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
)

const (
	successPath = "/checkout/success"
	cancelPath  = "/cart"
)

// Customer is the shipping and contact form submitted with a checkout.
type Customer struct {
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,notblank,min=10"`
	FirstName  string `json:"firstName" validate:"required,notblank,min=2"`
	LastName   string `json:"lastName" validate:"required,notblank,min=2"`
	Address    string `json:"address" validate:"required,notblank,min=5"`
	Apartment  string `json:"apartment,omitempty" validate:"omitempty,max=100"`
	City       string `json:"city" validate:"required,notblank,min=2"`
	State      string `json:"state" validate:"required,notblank,min=2"`
	ZipCode    string `json:"zipCode" validate:"required,notblank,min=5"`
	Country    string `json:"country" validate:"required,notblank,min=2"`
	OrderNotes string `json:"orderNotes,omitempty" validate:"omitempty,max=1000"`
}

// Request is a transient checkout attempt.
type Request struct {
	Lines    []cart.Line
	Customer Customer
	UserID   *uuid.UUID
	Origin   string
}

// Builder turns cart lines into Stripe Checkout Session parameters.
type Builder struct {
	currency  string
	publicURL string
}

func NewBuilder(currency, publicURL string) *Builder {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &Builder{currency: currency, publicURL: strings.TrimSpace(publicURL)}
}

// Build validates the request and returns the session parameters. Each cart
// line becomes one line item priced at its effective price in minor units.
func (b *Builder) Build(req Request) (*stripe.CheckoutSessionParams, error) {
	if len(req.Lines) == 0 {
		return nil, buildFailed("cart is empty")
	}
	origin := b.origin(req.Origin)
	if origin == "" {
		return nil, buildFailed("origin is unknown")
	}

	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines))
	for i, line := range req.Lines {
		item, err := b.lineItem(line)
		if err != nil {
			return nil, buildFailed(fmt.Sprintf("line %d: %s", i, err.Error()))
		}
		items = append(items, item)
	}

	userID := ""
	if req.UserID != nil && *req.UserID != uuid.Nil {
		userID = req.UserID.String()
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  items,
		SuccessURL: stripe.String(origin + successPath),
		CancelURL:  stripe.String(origin + cancelPath),
		Metadata:   map[string]string{pkgstripe.MetadataUserID: userID},
	}
	if email := strings.TrimSpace(req.Customer.Email); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	return params, nil
}

func (b *Builder) lineItem(line cart.Line) (*stripe.CheckoutSessionLineItemParams, error) {
	if line.ProductID == uuid.Nil {
		return nil, fmt.Errorf("product id is required")
	}
	if strings.TrimSpace(line.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if line.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	amount := UnitAmount(line.EffectivePrice())
	if amount <= 0 {
		return nil, fmt.Errorf("price must be positive")
	}

	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name:     stripe.String(line.Name),
		Metadata: map[string]string{pkgstripe.MetadataProductID: line.ProductID.String()},
	}
	if img := strings.TrimSpace(line.Image); img != "" {
		product.Images = []*string{stripe.String(img)}
	}

	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:    stripe.String(b.currency),
			UnitAmount:  stripe.Int64(amount),
			ProductData: product,
		},
		Quantity: stripe.Int64(int64(line.Quantity)),
	}, nil
}

func (b *Builder) origin(requestOrigin string) string {
	origin := b.publicURL
	if origin == "" {
		origin = strings.TrimSpace(requestOrigin)
	}
	return strings.TrimRight(origin, "/")
}

// UnitAmount converts a price to integer minor units, rounding half away from zero.
func UnitAmount(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}
