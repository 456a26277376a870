package stripe

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
)

// LineItem is the subset of a completed checkout session line item the order
// recorder needs. ProductID comes from the product metadata set at checkout.
type LineItem struct {
	ProductID   string
	Quantity    int64
	AmountTotal int64
}

// CheckoutAPI wraps the Stripe Checkout Session endpoints used by the storefront.
type CheckoutAPI struct{}

// NewCheckoutAPI returns the checkout wrapper once the client has been initialized.
func NewCheckoutAPI(client *Client) (*CheckoutAPI, error) {
	if client == nil {
		return nil, errors.New("stripe client is required")
	}
	return &CheckoutAPI{}, nil
}

// CreateSession creates a hosted checkout session and returns its id and redirect url.
func (a *CheckoutAPI) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (string, string, error) {
	if params == nil {
		return "", "", errors.New("checkout session params are required")
	}
	params.Context = ctx
	sess, err := session.New(params)
	if err != nil {
		return "", "", err
	}
	return sess.ID, sess.URL, nil
}

// ListLineItems fetches the line items for a session with the product expanded
// so the product id stored in product metadata is available.
func (a *CheckoutAPI) ListLineItems(ctx context.Context, sessionID string) ([]LineItem, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	params := &stripe.CheckoutSessionListLineItemsParams{Session: stripe.String(sessionID)}
	params.Context = ctx
	params.AddExpand("data.price.product")

	var out []LineItem
	iter := session.ListLineItems(params)
	for iter.Next() {
		out = append(out, lineItemFromStripe(iter.LineItem()))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func lineItemFromStripe(item *stripe.LineItem) LineItem {
	if item == nil {
		return LineItem{}
	}
	li := LineItem{
		Quantity:    item.Quantity,
		AmountTotal: item.AmountTotal,
	}
	if item.Price != nil && item.Price.Product != nil && item.Price.Product.Metadata != nil {
		li.ProductID = item.Price.Product.Metadata[MetadataProductID]
	}
	return li
}

const (
	MetadataProductID = "product_id"
	MetadataUserID    = "user_id"
)
