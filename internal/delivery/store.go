package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/blocked-delivery-dates/pkg/logging"
)

// Store persists the single config record of a shop. Save replaces the record
// whole; Load returns DefaultConfig for a shop that never saved.
type Store interface {
	Load(ctx context.Context, shop string) (Config, error)
	Save(ctx context.Context, shop string, cfg Config) error
}

// DefaultCacheTTL bounds how stale a cached config may be when the record is
// edited outside this service.
const DefaultCacheTTL = 5 * time.Minute

// CachedStore is a Redis read-through cache in front of another Store.
// Redis errors never fail a call; they only bypass the cache.
type CachedStore struct {
	next   Store
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedStore wraps next. A nil redis client disables caching.
func NewCachedStore(next Store, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedStore {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{next: next, redis: redisClient, ttl: ttl, logger: logger}
}

func (s *CachedStore) key(shop string) string {
	return fmt.Sprintf("delivery:blocked:%s", shop)
}

// Load serves from Redis when possible and fills the cache on a miss.
func (s *CachedStore) Load(ctx context.Context, shop string) (Config, error) {
	if s.redis != nil {
		data, err := s.redis.Get(ctx, s.key(shop)).Bytes()
		switch {
		case err == nil:
			cfg, decodeErr := Decode(data)
			if decodeErr == nil {
				return cfg, nil
			}
			s.logger.Warn("discarding unreadable cached config", "shop", shop, "error", decodeErr)
		case errors.Is(err, redis.Nil):
		default:
			s.logger.Warn("config cache read failed", "shop", shop, "error", err)
		}
	}

	cfg, err := s.next.Load(ctx, shop)
	if err != nil {
		return Config{}, err
	}
	s.fill(ctx, shop, cfg)
	return cfg, nil
}

// Save writes through to the backing store, then refreshes the cache.
func (s *CachedStore) Save(ctx context.Context, shop string, cfg Config) error {
	if err := s.next.Save(ctx, shop, cfg); err != nil {
		return err
	}
	s.fill(ctx, shop, cfg)
	return nil
}

func (s *CachedStore) fill(ctx context.Context, shop string, cfg Config) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		s.logger.Warn("config cache marshal failed", "shop", shop, "error", err)
		return
	}
	if err := s.redis.Set(ctx, s.key(shop), data, s.ttl).Err(); err != nil {
		s.logger.Warn("config cache write failed", "shop", shop, "error", err)
		// A stale entry must not outlive a successful save.
		_ = s.redis.Del(ctx, s.key(shop)).Err()
	}
}
