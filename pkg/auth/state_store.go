package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"
)

// StateStore keeps OAuth states and their PKCE verifiers between Begin and
// Complete. Consume must be atomic: a state can be consumed at most once.
type StateStore interface {
	Save(ctx context.Context, state, verifier string, ttl time.Duration) error
	// Consume returns the verifier and deletes the state, or ErrInvalidState.
	Consume(ctx context.Context, state string) (string, error)
}

const defaultStatePrefix = "folio:oauth_state:"

// RedisStateStore shares states across instances.
type RedisStateStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStateStore(client redis.UniversalClient) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: defaultStatePrefix}
}

func (s *RedisStateStore) Save(ctx context.Context, state, verifier string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+state, verifier, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	return nil
}

// Consume uses GETDEL so two callbacks racing on one state cannot both win.
func (s *RedisStateStore) Consume(ctx context.Context, state string) (string, error) {
	verifier, err := s.client.GetDel(ctx, s.prefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidState
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return verifier, nil
}

// MemoryStateStore is a single-instance StateStore for development and tests.
type MemoryStateStore struct {
	cache *ttlcache.Cache[string, string]
}

// NewMemoryStateStore starts the expiry loop; call Close to stop it.
func NewMemoryStateStore() *MemoryStateStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, string](10*time.Minute),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go cache.Start()

	return &MemoryStateStore{cache: cache}
}

func (s *MemoryStateStore) Save(_ context.Context, state, verifier string, ttl time.Duration) error {
	s.cache.Set(state, verifier, ttl)
	return nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string) (string, error) {
	item, ok := s.cache.GetAndDelete(state)
	if !ok || item == nil || item.IsExpired() {
		return "", ErrInvalidState
	}
	return item.Value(), nil
}

func (s *MemoryStateStore) Close() {
	s.cache.Stop()
}

var (
	_ StateStore = (*RedisStateStore)(nil)
	_ StateStore = (*MemoryStateStore)(nil)
)
