package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/casadaesfiha/storefront-backend/pkg/logger"
	"github.com/casadaesfiha/storefront-backend/pkg/metrics"
	pkgredis "github.com/casadaesfiha/storefront-backend/pkg/redis"
)

// keyValue is the slice of the redis client the store needs.
type keyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(ownerID string) string
}

// Store keeps one cart per owner. Reads and writes go through an in-process
// cache guarded by a mutex; every mutation is written through to redis with
// a TTL so abandoned carts expire on their own.
//
// A redis write failure does not fail the mutation. The in-process copy is
// authoritative for the life of the process; the failure is logged and
// counted so operators can see durability degrading.
type Store struct {
	kv      keyValue
	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics
	ttl     time.Duration

	mu    sync.Mutex
	carts map[string]*Cart
}

// NewStore builds a cart store. ttl bounds how long a persisted cart
// survives without activity.
func NewStore(kv keyValue, logg *logger.Logger, m *metrics.StorefrontMetrics, ttl time.Duration) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("cart store requires a redis client")
	}
	if logg == nil {
		return nil, fmt.Errorf("cart store requires a logger")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart store requires a positive ttl, got %s", ttl)
	}
	return &Store{
		kv:      kv,
		logg:    logg,
		metrics: m,
		ttl:     ttl,
		carts:   make(map[string]*Cart),
	}, nil
}

// Load returns the owner's cart, reading through to redis on a cache miss.
// A missing or unreadable snapshot yields a fresh empty cart.
func (s *Store) Load(ctx context.Context, ownerID string) (*Cart, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("cart store: owner id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.carts[ownerID]; ok {
		return c.Clone(), nil
	}

	c := s.loadFromRedis(ctx, ownerID)
	s.carts[ownerID] = c
	return c.Clone(), nil
}

// Mutate applies fn to the owner's cart under the store lock and writes the
// result through to redis. fn sees the live cart; returning an error aborts
// the mutation and nothing is persisted.
func (s *Store) Mutate(ctx context.Context, ownerID string, fn func(c *Cart) error) (*Cart, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("cart store: owner id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[ownerID]
	if !ok {
		c = s.loadFromRedis(ctx, ownerID)
		s.carts[ownerID] = c
	}

	if err := fn(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = time.Now().UTC()
	s.persist(ctx, c)
	return c.Clone(), nil
}

// Drop discards the owner's cart from the cache and redis. Used after
// checkout and on explicit clear.
func (s *Store) Drop(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("cart store: owner id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, ownerID)
	if err := s.kv.Del(ctx, s.kv.CartKey(ownerID)); err != nil {
		s.warnPersist(ctx, ownerID, "delete", err)
	}
	return nil
}

func (s *Store) loadFromRedis(ctx context.Context, ownerID string) *Cart {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(ownerID))
	if err != nil {
		if !pkgredis.IsNil(err) {
			s.logg.Warn(ctx, fmt.Sprintf("cart load for owner %s: %v", ownerID, err))
		}
		return NewCart(ownerID)
	}

	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("cart snapshot for owner %s is unreadable: %v", ownerID, err))
		return NewCart(ownerID)
	}
	if c.Version != SchemaVersion {
		ctx = s.logg.WithField(ctx, "version", c.Version)
		s.logg.Warn(ctx, fmt.Sprintf("cart snapshot for owner %s has stale schema, discarding", ownerID))
		return NewCart(ownerID)
	}
	c.OwnerID = ownerID
	if dropped := sanitizeLines(&c); dropped > 0 {
		ctx = s.logg.WithField(ctx, "dropped", dropped)
		s.logg.Warn(ctx, fmt.Sprintf("cart snapshot for owner %s had malformed lines, discarded", ownerID))
	}
	return &c
}

// sanitizeLines drops persisted lines that fail structural checks and
// reports how many were removed. Totals are derived from whatever lines
// survive, never read back from the snapshot.
func sanitizeLines(c *Cart) int {
	if c.Lines == nil {
		c.Lines = []Line{}
		return 0
	}
	kept := c.Lines[:0]
	for _, line := range c.Lines {
		if line.Fingerprint == "" || line.ProductID == uuid.Nil {
			continue
		}
		if line.Quantity < 1 || line.UnitPrice.IsNegative() {
			continue
		}
		kept = append(kept, line)
	}
	dropped := len(c.Lines) - len(kept)
	c.Lines = kept
	return dropped
}

func (s *Store) persist(ctx context.Context, c *Cart) {
	payload, err := json.Marshal(c)
	if err != nil {
		s.warnPersist(ctx, c.OwnerID, "encode", err)
		return
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(c.OwnerID), payload, s.ttl); err != nil {
		s.warnPersist(ctx, c.OwnerID, "write", err)
	}
}

func (s *Store) warnPersist(ctx context.Context, ownerID, op string, err error) {
	s.metrics.IncCartPersistFailure()
	ctx = s.logg.WithField(ctx, "owner_id", ownerID)
	s.logg.Warn(ctx, fmt.Sprintf("cart %s failed, continuing with in-memory copy: %v", op, err))
}
