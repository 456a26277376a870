package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Scope namespaces webhook event ids in the idempotency keyspace.
const Scope = "stripe-webhook"

const (
	markerInFlight = "processing"
	markerDone     = "done"

	// inFlightTTL bounds how long a crashed delivery keeps its event claimed.
	inFlightTTL = 30 * time.Second
)

type guardStore interface {
	redis.IdempotencyStore
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// IdempotencyGuard remembers Stripe event ids so exact replays skip the
// database. An event is claimed with a short in-flight marker and only kept
// for the full TTL once it has been handled. A nil guard lets every event
// through.
type IdempotencyGuard struct {
	store guardStore
	ttl   time.Duration
	scope string
}

func NewIdempotencyGuard(store guardStore, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	return &IdempotencyGuard{store: store, ttl: ttl, scope: Scope}, nil
}

// Seen claims the event as in flight and reports whether it was already
// claimed or handled.
func (g *IdempotencyGuard) Seen(ctx context.Context, eventID string) (bool, error) {
	if g == nil {
		return false, nil
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := g.store.SetNX(ctx, g.store.IdempotencyKey(g.scope, eventID), markerInFlight, inFlightTTL)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Complete records the event as handled for the full TTL.
func (g *IdempotencyGuard) Complete(ctx context.Context, eventID string) error {
	if g == nil {
		return nil
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return errors.New("event id is required")
	}
	if err := g.store.Set(ctx, g.store.IdempotencyKey(g.scope, eventID), markerDone, g.ttl); err != nil {
		return fmt.Errorf("mark event handled: %w", err)
	}
	return nil
}

// Release forgets the event so a redelivery is processed again.
func (g *IdempotencyGuard) Release(ctx context.Context, eventID string) error {
	if g == nil {
		return nil
	}
	if strings.TrimSpace(eventID) == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(g.scope, eventID))
}
