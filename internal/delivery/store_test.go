package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/blocked-delivery-dates/pkg/logging"
)

type countingStore struct {
	configs map[string]Config
	loads   int
	saves   int
	loadErr error
	saveErr error
}

func newCountingStore() *countingStore {
	return &countingStore{configs: map[string]Config{}}
}

func (s *countingStore) Load(_ context.Context, shop string) (Config, error) {
	s.loads++
	if s.loadErr != nil {
		return Config{}, s.loadErr
	}
	if cfg, ok := s.configs[shop]; ok {
		return cfg, nil
	}
	return DefaultConfig(), nil
}

func (s *countingStore) Save(_ context.Context, shop string, cfg Config) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.configs[shop] = cfg
	return nil
}

func newTestCache(t *testing.T, next Store) (*CachedStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCachedStore(next, client, time.Minute, logging.New("error")), mr
}

func TestCachedStoreFillsOnMiss(t *testing.T) {
	backing := newCountingStore()
	backing.configs["demo.myshopify.com"] = Config{BlockedDates: []string{"2024-06-10"}}
	store, mr := newTestCache(t, backing)
	ctx := context.Background()

	first, err := store.Load(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	second, err := store.Load(ctx, "demo.myshopify.com")
	require.NoError(t, err)

	assert.Equal(t, 1, backing.loads)
	assert.True(t, first.Equal(second))
	assert.True(t, mr.Exists("delivery:blocked:demo.myshopify.com"))
	assert.Equal(t, time.Minute, mr.TTL("delivery:blocked:demo.myshopify.com"))
}

func TestCachedStoreSaveRefreshesCache(t *testing.T) {
	backing := newCountingStore()
	store, _ := newTestCache(t, backing)
	ctx := context.Background()

	_, err := store.Load(ctx, "demo.myshopify.com")
	require.NoError(t, err)

	saved := Config{BlockedWeekdays: []time.Weekday{time.Sunday}}
	require.NoError(t, store.Save(ctx, "demo.myshopify.com", saved))

	got, err := store.Load(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	assert.True(t, saved.Equal(got))
	assert.Equal(t, 1, backing.loads)
}

func TestCachedStoreSaveFailureKeepsOldCache(t *testing.T) {
	backing := newCountingStore()
	backing.configs["demo.myshopify.com"] = Config{BlockedDates: []string{"2024-06-10"}}
	store, _ := newTestCache(t, backing)
	ctx := context.Background()

	_, err := store.Load(ctx, "demo.myshopify.com")
	require.NoError(t, err)

	backing.saveErr = errors.New("boom")
	err = store.Save(ctx, "demo.myshopify.com", DefaultConfig())
	require.Error(t, err)

	got, err := store.Load(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-10"}, got.BlockedDates)
}

func TestCachedStoreIgnoresCorruptEntry(t *testing.T) {
	backing := newCountingStore()
	store, mr := newTestCache(t, backing)
	require.NoError(t, mr.Set("delivery:blocked:demo.myshopify.com", "not json"))

	got, err := store.Load(context.Background(), "demo.myshopify.com")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
	assert.Equal(t, 1, backing.loads)
}

func TestCachedStoreBypassesUnavailableRedis(t *testing.T) {
	backing := newCountingStore()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	store := NewCachedStore(backing, client, time.Minute, logging.New("error"))

	require.NoError(t, store.Save(context.Background(), "demo.myshopify.com", Config{BlockedDates: []string{"2024-01-01"}}))
	got, err := store.Load(context.Background(), "demo.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01"}, got.BlockedDates)
}

func TestCachedStorePropagatesBackingLoadError(t *testing.T) {
	backing := newCountingStore()
	backing.loadErr = errors.New("unreachable")
	store := NewCachedStore(backing, nil, 0, nil)

	_, err := store.Load(context.Background(), "demo.myshopify.com")
	assert.EqualError(t, err, "unreachable")
}
