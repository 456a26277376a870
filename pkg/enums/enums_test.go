package enums

import "testing"

func TestParseProductSort(t *testing.T) {
	cases := map[string]ProductSort{
		"":           "",
		"newest":     ProductSortNewest,
		" PRICE-ASC": ProductSortPriceAsc,
		"price-desc": ProductSortPriceDesc,
		"popular":    ProductSortPopular,
	}
	for raw, want := range cases {
		got, err := ParseProductSort(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %q got %q", raw, want, got)
		}
	}
	if _, err := ParseProductSort("cheapest"); err == nil {
		t.Fatalf("expected error for unknown sort")
	}
}

func TestOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("paid")
	if err != nil {
		t.Fatalf("parse paid: %v", err)
	}
	if !status.IsTerminal() {
		t.Fatalf("paid must be terminal")
	}
	if OrderStatusPending.IsTerminal() {
		t.Fatalf("pending must not be terminal")
	}
	if OrderStatus("refunded").IsValid() {
		t.Fatalf("unexpected valid status")
	}
	if _, err := ParseOrderStatus("refunded"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseUserRole(t *testing.T) {
	if role, err := ParseUserRole("admin"); err != nil || role != UserRoleAdmin {
		t.Fatalf("unexpected result %q %v", role, err)
	}
	if _, err := ParseUserRole("owner"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
