package stripe

import (
	"context"
	"testing"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestNewClientValidatesKeys(t *testing.T) {
	ctx := context.Background()

	if _, err := NewClient(ctx, config.StripeConfig{Secret: "whsec_x"}, nil); err != errAPIKeyRequired {
		t.Fatalf("expected api key error, got %v", err)
	}
	if _, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_test_123"}, nil); err != errSecretRequired {
		t.Fatalf("expected secret error, got %v", err)
	}
	if _, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_live_123", Secret: "whsec_x", Env: "test"}, nil); err == nil {
		t.Fatal("expected live key to be rejected in test env")
	}
	if _, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_test_123", Secret: "whsec_x", Env: "staging"}, nil); err != errInvalidStripeEnv {
		t.Fatalf("expected invalid env error, got %v", err)
	}

	client, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_test_123", Secret: " whsec_x ", Env: "TEST"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Environment() != "test" || client.SigningSecret() != "whsec_x" {
		t.Fatalf("unexpected client state env=%q secret=%q", client.Environment(), client.SigningSecret())
	}
	if client.Currency() != "usd" {
		t.Fatalf("expected default currency usd, got %q", client.Currency())
	}
}

func TestNewClientNormalizesCurrency(t *testing.T) {
	ctx := context.Background()
	base := config.StripeConfig{APIKey: "rk_test_123", Secret: "whsec_x"}

	base.Currency = " EUR "
	client, err := NewClient(ctx, base, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Currency() != "eur" {
		t.Fatalf("expected eur, got %q", client.Currency())
	}

	for _, bad := range []string{"euro", "u$d", "12"} {
		base.Currency = bad
		if _, err := NewClient(ctx, base, nil); err != errInvalidCurrency {
			t.Fatalf("currency %q: expected errInvalidCurrency, got %v", bad, err)
		}
	}
}

func TestNilClientAccessors(t *testing.T) {
	var c *Client
	if c.Environment() != "" || c.SigningSecret() != "" {
		t.Fatal("nil client accessors should return zero values")
	}
	if _, err := NewCheckoutAPI(nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestLineItemFromStripe(t *testing.T) {
	item := &stripe.LineItem{
		Quantity:    2,
		AmountTotal: 4999,
		Price: &stripe.Price{
			Product: &stripe.Product{Metadata: map[string]string{MetadataProductID: "prod-1"}},
		},
	}
	got := lineItemFromStripe(item)
	if got.ProductID != "prod-1" || got.Quantity != 2 || got.AmountTotal != 4999 {
		t.Fatalf("unexpected line item %+v", got)
	}

	bare := lineItemFromStripe(&stripe.LineItem{Quantity: 1, AmountTotal: 100})
	if bare.ProductID != "" {
		t.Fatalf("expected empty product id, got %q", bare.ProductID)
	}
}

func TestCheckoutAPIRequiresInput(t *testing.T) {
	api := &CheckoutAPI{}
	if _, _, err := api.CreateSession(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil params")
	}
	if _, err := api.ListLineItems(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty session id")
	}
}
