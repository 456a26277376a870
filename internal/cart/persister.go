package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

// MemoryPersister keeps cart slots in process memory.
type MemoryPersister struct {
	mu    sync.Mutex
	slots map[string][]Line
	locks map[string]*sync.Mutex
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{slots: make(map[string][]Line), locks: make(map[string]*sync.Mutex)}
}

// Lock holds the slot's mutex until unlock is called.
func (m *MemoryPersister) Lock(_ context.Context, slot string) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[slot]
	if !ok {
		l = &sync.Mutex{}
		m.locks[slot] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock, nil
}

// Slot binds the persister to a single cart slot.
func (m *MemoryPersister) Slot(slot string) Persister {
	return &memorySlot{parent: m, slot: slot}
}

type memorySlot struct {
	parent *MemoryPersister
	slot   string
}

func (s *memorySlot) Load(context.Context) ([]Line, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	lines := s.parent.slots[s.slot]
	out := make([]Line, len(lines))
	copy(out, lines)
	return out, nil
}

func (s *memorySlot) Save(_ context.Context, lines []Line) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	if len(lines) == 0 {
		delete(s.parent.slots, s.slot)
		return nil
	}
	stored := make([]Line, len(lines))
	copy(stored, lines)
	s.parent.slots[s.slot] = stored
	return nil
}

const (
	slotLockTTL  = 5 * time.Second
	slotLockWait = 3 * time.Second
	slotLockPoll = 25 * time.Millisecond
)

var errSlotBusy = errors.New("cart slot is busy")

// RedisPersister stores each cart slot as a JSON line list under sf:cart:<slot>.
// Loading a slot pushes its expiry out by the configured TTL.
type RedisPersister struct {
	store redis.CartSlotStore
	ttl   time.Duration
}

func NewRedisPersister(store redis.CartSlotStore, ttl time.Duration) (*RedisPersister, error) {
	if store == nil {
		return nil, errors.New("cart slot store is required")
	}
	if ttl < 0 {
		return nil, errors.New("cart ttl must be non-negative")
	}
	return &RedisPersister{store: store, ttl: ttl}, nil
}

// Slot binds the persister to a single cart slot.
func (r *RedisPersister) Slot(slot string) Persister {
	return &redisSlot{parent: r, key: r.store.CartKey(strings.TrimSpace(slot))}
}

// Lock takes sf:cart:<slot>:lock with SET NX, polling until the holder
// releases it or slotLockWait passes. The lock expires on its own after
// slotLockTTL so a crashed holder cannot wedge the slot.
func (r *RedisPersister) Lock(ctx context.Context, slot string) (func(), error) {
	key := r.store.CartKey(strings.TrimSpace(slot)) + ":lock"
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, slotLockWait)
	defer cancel()
	ticker := time.NewTicker(slotLockPoll)
	defer ticker.Stop()

	for {
		ok, err := r.store.SetNX(waitCtx, key, token, slotLockTTL)
		if err != nil {
			return nil, fmt.Errorf("lock cart: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-waitCtx.Done():
			return nil, errSlotBusy
		case <-ticker.C:
		}
	}

	return func() {
		// Only release a lock this holder still owns.
		release := context.WithoutCancel(ctx)
		if held, err := r.store.Get(release, key); err == nil && held == token {
			_ = r.store.Del(release, key)
		}
	}, nil
}

type redisSlot struct {
	parent *RedisPersister
	key    string
}

func (s *redisSlot) Load(ctx context.Context) ([]Line, error) {
	raw, err := s.parent.store.GetEx(ctx, s.key, s.parent.ttl)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return lines, nil
}

func (s *redisSlot) Save(ctx context.Context, lines []Line) error {
	if len(lines) == 0 {
		return s.parent.store.Del(ctx, s.key)
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.parent.store.Set(ctx, s.key, string(raw), s.parent.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
