package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/validators"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const checkoutPattern = "/api/v1/checkout/session"

type memoryIdempotencyStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, taken := m.data[key]; taken {
		return false, nil
	}
	m.data[key], _ = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

// idemRequest builds a request as chi would hand it to the middleware.
type idemRequest struct {
	method  string
	pattern string
	body    string
	key     string
	slot    string
	user    uuid.UUID
}

func (c idemRequest) build() *http.Request {
	method := c.method
	if method == "" {
		method = http.MethodPost
	}
	pattern := c.pattern
	if pattern == "" {
		pattern = checkoutPattern
	}
	req := httptest.NewRequest(method, pattern, strings.NewReader(c.body))
	if c.key != "" {
		req.Header.Set(idempotencyHeader, c.key)
	}
	if c.slot != "" {
		req.Header.Set(cartSessionHeader, c.slot)
	}
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	if c.user != uuid.Nil {
		ctx = WithIdentity(ctx, Identity{UserID: c.user})
	}
	return req.WithContext(ctx)
}

type countingHandler struct {
	calls  int
	status int
	body   string
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.calls++
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(h.status)
	_, _ = w.Write([]byte(h.body))
}

func send(t *testing.T, store *memoryIdempotencyStore, next http.Handler, c idemRequest) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	Idempotency(store, nil)(next).ServeHTTP(resp, c.build())
	return resp
}

func TestIdempotentRoutes(t *testing.T) {
	for _, tc := range []struct {
		method, pattern string
		want            time.Duration
	}{
		{http.MethodPost, checkoutPattern, checkoutIdempotencyTTL},
		{http.MethodPost, "/api/v1/auth/register", defaultIdempotencyTTL},
		{http.MethodPut, "/api/v1/me/profile", defaultIdempotencyTTL},
		{http.MethodPost, "/api/v1/cart/items", defaultIdempotencyTTL},
		{http.MethodPost, "/api/v1/auth/login", 0},
		{http.MethodGet, "/api/v1/me/profile", 0},
	} {
		ttl, ok := routeTTL(tc.method, tc.pattern)
		require.Equal(t, tc.want != 0, ok, "%s %s", tc.method, tc.pattern)
		require.Equal(t, tc.want, ttl, "%s %s", tc.method, tc.pattern)
	}
}

func TestIdempotencyIgnoresRequestsWithoutKey(t *testing.T) {
	store := newMemoryIdempotencyStore()
	next := &countingHandler{status: http.StatusCreated}

	resp := send(t, store, next, idemRequest{slot: "cart_aaaaaaaa", body: `{}`})
	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, 1, next.calls)
	require.Empty(t, store.data)
}

func TestIdempotencyReplaysRecordedResponse(t *testing.T) {
	store := newMemoryIdempotencyStore()
	next := &countingHandler{status: http.StatusOK, body: `{"data":{"id":"cs_test_1"}}`}
	call := idemRequest{key: "k-1", slot: "cart_aaaaaaaa", body: `{"customer":{}}`}

	first := send(t, store, next, call)
	require.Empty(t, first.Header().Get(replayedHeader))

	again := send(t, store, next, call)
	require.Equal(t, 1, next.calls)
	require.Equal(t, http.StatusOK, again.Code)
	require.Equal(t, "true", again.Header().Get(replayedHeader))
	require.Equal(t, "application/json", again.Header().Get("Content-Type"))
	require.JSONEq(t, first.Body.String(), again.Body.String())

	recordKey := store.IdempotencyKey("cart:cart_aaaaaaaa|POST|"+checkoutPattern, "k-1")
	require.Equal(t, checkoutIdempotencyTTL, store.ttls[recordKey])
}

func TestIdempotencyRejectsReusedKeyWithNewBody(t *testing.T) {
	store := newMemoryIdempotencyStore()
	next := &countingHandler{status: http.StatusOK, body: `{}`}

	send(t, store, next, idemRequest{key: "k-2", slot: "cart_aaaaaaaa", body: `{"a":1}`})
	resp := send(t, store, next, idemRequest{key: "k-2", slot: "cart_aaaaaaaa", body: `{"a":2}`})

	require.Equal(t, http.StatusConflict, resp.Code)
	require.Equal(t, 1, next.calls)
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Equal(t, string(pkgerrors.CodeIdempotency), envelope.Error.Code)
}

func TestIdempotencyKeysAreScopedToCaller(t *testing.T) {
	store := newMemoryIdempotencyStore()
	next := &countingHandler{status: http.StatusOK, body: `{}`}
	alice, bob := uuid.New(), uuid.New()

	send(t, store, next, idemRequest{key: "same", slot: "cart_aaaaaaaa", body: `{}`})
	send(t, store, next, idemRequest{key: "same", slot: "cart_bbbbbbbb", body: `{}`})
	send(t, store, next, idemRequest{key: "same", slot: "cart_aaaaaaaa", user: alice, body: `{}`})
	send(t, store, next, idemRequest{key: "same", slot: "cart_aaaaaaaa", user: bob, body: `{}`})
	require.Equal(t, 4, next.calls)

	replayed := send(t, store, next, idemRequest{key: "same", slot: "cart_cccccccc", user: alice, body: `{}`})
	require.Equal(t, "true", replayed.Header().Get(replayedHeader))
	require.Equal(t, 4, next.calls)
}

func TestIdempotencyLetsFailedRequestsRetry(t *testing.T) {
	store := newMemoryIdempotencyStore()
	next := &countingHandler{status: http.StatusBadGateway, body: `{}`}
	call := idemRequest{key: "retry", slot: "cart_aaaaaaaa", body: `{}`}

	require.Equal(t, http.StatusBadGateway, send(t, store, next, call).Code)
	next.status = http.StatusOK
	require.Equal(t, http.StatusOK, send(t, store, next, call).Code)
	require.Equal(t, 2, next.calls)
	require.Len(t, store.data, 1, "only the successful response stays and the lock is gone")
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	store := newMemoryIdempotencyStore()
	next := &countingHandler{status: http.StatusOK}
	store.data[store.IdempotencyKey("cart:cart_aaaaaaaa|POST|"+checkoutPattern, "double-click")+":lock"] = "held"

	resp := send(t, store, next, idemRequest{key: "double-click", slot: "cart_aaaaaaaa", body: `{}`})
	require.Equal(t, http.StatusConflict, resp.Code)
	require.Zero(t, next.calls)
}

func TestIdempotencyCapsBodyBeforeBuffering(t *testing.T) {
	store := newMemoryIdempotencyStore()
	next := &countingHandler{status: http.StatusOK, body: `{}`}
	oversized := `{"note":"` + strings.Repeat("x", validators.MaxBodyBytes) + `"}`

	resp := send(t, store, next, idemRequest{key: "big", slot: "cart_aaaaaaaa", body: oversized})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Zero(t, next.calls)
	require.Empty(t, store.data)
}
