package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

var testJWT = config.JWTConfig{Secret: "router-secret", Issuer: "storefront", ExpirationMinutes: 15}

type fakeRedis struct {
	data  map[string]string
	allow bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, allow: true}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeRedis) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (f *fakeRedis) FixedWindowAllow(_ context.Context, _ string, _ int64, _ time.Duration) (bool, int64, error) {
	if f.allow {
		return true, 1, nil
	}
	return false, 99, nil
}

type allowSessions struct{}

func (allowSessions) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type countingCheckout struct {
	calls int
	input checkout.StartInput
}

func (c *countingCheckout) Start(_ context.Context, input checkout.StartInput) (*checkout.Session, error) {
	c.calls++
	c.input = input
	return &checkout.Session{ID: fmt.Sprintf("cs_test_%d", c.calls), URL: "https://checkout.stripe.test/pay"}, nil
}

type ownerOrders struct {
	owner uuid.UUID
}

func (o *ownerOrders) ListForUser(_ context.Context, userID uuid.UUID) ([]orders.OrderView, error) {
	o.owner = userID
	return []orders.OrderView{{ID: uuid.New(), Total: decimal.RequireFromString("42.50"), Status: enums.OrderStatusPaid}}, nil
}

func (o *ownerOrders) GetForUser(_ context.Context, userID, _ uuid.UUID) (*orders.OrderView, error) {
	o.owner = userID
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: testJWT,
		RateLimit: config.RateLimitConfig{
			LoginWindow:       time.Minute,
			LoginIPLimit:      5,
			RegisterWindow:    time.Minute,
			RegisterIPLimit:   5,
			CheckoutWindow:    time.Minute,
			CheckoutCartLimit: 5,
		},
	}
}

func newTestRouter(t *testing.T, deps Dependencies) http.Handler {
	t.Helper()
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
		deps.HTTPMetrics = metrics.NewHTTPMetrics(deps.Registry)
	}
	if deps.Redis == nil {
		deps.Redis = newFakeRedis()
	}
	if deps.Sessions == nil {
		deps.Sessions = allowSessions{}
	}
	return NewRouter(testConfig(), nil, deps)
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testJWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Email:  "shopper@example.com",
		Role:   enums.UserRoleCustomer,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	router := newTestRouter(t, Dependencies{Readiness: map[string]controllers.Pinger{}})

	if resp := do(t, router, httptest.NewRequest(http.MethodGet, "/health/live", nil)); resp.Code != http.StatusOK {
		t.Fatalf("expected live 200 got %d", resp.Code)
	}

	resp := do(t, router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected metrics 200 got %d", resp.Code)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `route="/health/live"`) {
		t.Fatalf("expected live route in metrics, got %s", body)
	}
}

func TestCartRoutesRequireSessionHeader(t *testing.T) {
	router := newTestRouter(t, Dependencies{})

	resp := do(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without cart session got %d", resp.Code)
	}
}

func TestCheckoutSessionReplaysIdempotentRequest(t *testing.T) {
	svc := &countingCheckout{}
	router := newTestRouter(t, Dependencies{Checkout: svc})

	body := `{"customer":{"email":"ada@example.com","phone":"5125550100","firstName":"Ada","lastName":"Lovelace",` +
		`"address":"12 Analytical Way","city":"Austin","state":"TX","zipCode":"78701","country":"US"}}`
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/session", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Cart-Session", "cart-slot-123")
		req.Header.Set("Idempotency-Key", "checkout-1")
		return do(t, router, req)
	}

	first := send()
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", first.Code, first.Body.String())
	}
	second := send()
	if second.Code != http.StatusOK {
		t.Fatalf("expected replayed 200 got %d", second.Code)
	}
	if svc.calls != 1 {
		t.Fatalf("expected one session created, got %d", svc.calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected identical replay, got %s vs %s", first.Body.String(), second.Body.String())
	}
	if svc.input.CartSession != "cart-slot-123" || svc.input.UserID != nil {
		t.Fatalf("unexpected checkout input %+v", svc.input)
	}
}

func TestAccountRoutesRequireBearer(t *testing.T) {
	svc := &ownerOrders{}
	router := newTestRouter(t, Dependencies{Orders: svc})

	for _, path := range []string{"/api/v1/me/profile", "/api/v1/orders"} {
		if resp := do(t, router, httptest.NewRequest(http.MethodGet, path, nil)); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, resp.Code)
		}
	}

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", bearer(t, userID))
	resp := do(t, router, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.owner != userID {
		t.Fatalf("expected orders scoped to %s got %s", userID, svc.owner)
	}
}

func TestRegisterIsRateLimited(t *testing.T) {
	store := newFakeRedis()
	store.allow = false
	router := newTestRouter(t, Dependencies{Redis: store})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"email":"a@b.co","password":"longenough"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := do(t, router, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
}

func TestCORSPreflightAllowsCartHeader(t *testing.T) {
	router := newTestRouter(t, Dependencies{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart/items", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-Cart-Session")
	resp := do(t, router, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected origin echoed, got %q", got)
	}
}
