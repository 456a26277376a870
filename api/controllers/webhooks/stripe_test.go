package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	stripewebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/stripe"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const signingSecret = "whsec_storefront"

type secretString string

func (s secretString) SigningSecret() string { return string(s) }

type recordingService struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (s *recordingService) HandleEvent(_ context.Context, event *stripe.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event.ID)
	return s.err
}

func (s *recordingService) handled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// keyStore is the in-memory stand-in for Redis SETNX bookkeeping.
type keyStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func (k *keyStore) Get(_ context.Context, key string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.keys[key], nil
}

func (k *keyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.keys == nil {
		k.keys = map[string]string{}
	}
	if _, taken := k.keys[key]; taken {
		return false, nil
	}
	k.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (k *keyStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.keys == nil {
		k.keys = map[string]string{}
	}
	k.keys[key] = fmt.Sprint(value)
	return nil
}

func (k *keyStore) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (k *keyStore) Del(_ context.Context, keys ...string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, key := range keys {
		delete(k.keys, key)
	}
	return nil
}

type brokenGuard struct{}

func (brokenGuard) Seen(context.Context, string) (bool, error) {
	return false, errors.New("redis unreachable")
}

func (brokenGuard) Complete(context.Context, string) error { return nil }

func (brokenGuard) Release(context.Context, string) error { return nil }

func completedEvent(t *testing.T, eventID string) []byte {
	t.Helper()
	session, err := json.Marshal(stripe.CheckoutSession{ID: "cs_test_123", AmountTotal: 4999})
	require.NoError(t, err)
	payload, err := json.Marshal(stripe.Event{
		ID:         eventID,
		Object:     "event",
		Type:       stripe.EventTypeCheckoutSessionCompleted,
		APIVersion: stripe.APIVersion,
		Data:       &stripe.EventData{Raw: session},
	})
	require.NoError(t, err)
	return payload
}

func sign(payload []byte, secret string, at time.Time) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	}).Header
}

func deliver(h http.Handler, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func requireReceived(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
}

func newGuard(t *testing.T) *stripewebhook.IdempotencyGuard {
	t.Helper()
	guard, err := stripewebhook.NewIdempotencyGuard(&keyStore{}, time.Hour)
	require.NoError(t, err)
	return guard
}

func TestStripeWebhookProcessesEachEventOnce(t *testing.T) {
	svc := &recordingService{}
	h := StripeWebhook(svc, secretString(signingSecret), newGuard(t), nil)
	payload := completedEvent(t, "evt_once")
	signature := sign(payload, signingSecret, time.Now())

	requireReceived(t, deliver(h, payload, signature))
	requireReceived(t, deliver(h, payload, signature))
	assert.Equal(t, []string{"evt_once"}, svc.events)

	other := completedEvent(t, "evt_twice")
	requireReceived(t, deliver(h, other, sign(other, signingSecret, time.Now())))
	assert.Equal(t, 2, svc.handled())
}

func TestStripeWebhookRejectsBadSignatures(t *testing.T) {
	payload := completedEvent(t, "evt_forged")
	cases := map[string]string{
		"missing header": "",
		"garbage header": "t=1,v1=deadbeef",
		"foreign secret": sign(payload, "whsec_someone_else", time.Now()),
		"stale":          sign(payload, signingSecret, time.Now().Add(-time.Hour)),
	}
	for name, signature := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &recordingService{}
			rec := deliver(StripeWebhook(svc, secretString(signingSecret), newGuard(t), nil), payload, signature)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, svc.handled())
		})
	}
}

func TestStripeWebhookFailureAllowsRedelivery(t *testing.T) {
	svc := &recordingService{err: pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("db down"), "record order")}
	h := StripeWebhook(svc, secretString(signingSecret), newGuard(t), nil)
	payload := completedEvent(t, "evt_retry")
	signature := sign(payload, signingSecret, time.Now())

	assert.Equal(t, http.StatusInternalServerError, deliver(h, payload, signature).Code)

	svc.err = nil
	requireReceived(t, deliver(h, payload, signature))
	assert.Equal(t, 2, svc.handled())
}

func TestStripeWebhookGuardIsOptional(t *testing.T) {
	payload := completedEvent(t, "evt_unguarded")
	signature := sign(payload, signingSecret, time.Now())

	for name, guard := range map[string]stripeWebhookGuard{"absent": nil, "unreachable": brokenGuard{}} {
		t.Run(name, func(t *testing.T) {
			svc := &recordingService{}
			h := StripeWebhook(svc, secretString(signingSecret), guard, nil)

			requireReceived(t, deliver(h, payload, signature))
			requireReceived(t, deliver(h, payload, signature))
			// the unique order constraint absorbs the duplicate downstream
			assert.Equal(t, 2, svc.handled())
		})
	}
}

func TestStripeWebhookUnconfigured(t *testing.T) {
	payload := completedEvent(t, "evt_nowhere")
	rec := deliver(StripeWebhook(nil, secretString(signingSecret), nil, nil), payload, sign(payload, signingSecret, time.Now()))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStripeWebhookMarksEventHandledOnlyAfterSuccess(t *testing.T) {
	store := &keyStore{}
	guard, err := stripewebhook.NewIdempotencyGuard(store, time.Hour)
	require.NoError(t, err)
	key := store.IdempotencyKey(stripewebhook.Scope, "evt_marked")

	svc := &recordingService{err: pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("db down"), "record order")}
	h := StripeWebhook(svc, secretString(signingSecret), guard, nil)
	payload := completedEvent(t, "evt_marked")
	signature := sign(payload, signingSecret, time.Now())

	assert.Equal(t, http.StatusInternalServerError, deliver(h, payload, signature).Code)
	assert.NotContains(t, store.keys, key)

	svc.err = nil
	requireReceived(t, deliver(h, payload, signature))
	assert.Equal(t, "done", store.keys[key])
}
