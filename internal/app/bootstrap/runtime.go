package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/blocked-delivery-dates/internal/config"
	"github.com/wolfman30/blocked-delivery-dates/internal/delivery"
	"github.com/wolfman30/blocked-delivery-dates/internal/sessions"
	"github.com/wolfman30/blocked-delivery-dates/internal/shopify"
	"github.com/wolfman30/blocked-delivery-dates/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil so the
// config cache is bypassed rather than failing every request.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DialTimeout: 2 * time.Second,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, config cache disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool opens the pgx pool used for offline sessions. It returns
// nil without error when DATABASE_URL is unset.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	return pool, nil
}

// BuildAuditDB opens a database/sql handle over the pgx driver for the audit log.
func BuildAuditDB(cfg *appconfig.Config) (*sql.DB, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open audit db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// BuildTokenSource prefers the env-configured single-shop token and falls back
// to stored offline sessions.
func BuildTokenSource(cfg *appconfig.Config, pool *pgxpool.Pool) sessions.TokenSource {
	var chain sessions.Chain
	if cfg != nil {
		if static := sessions.NewStaticTokenSource(cfg.ShopifyShopDomain, cfg.ShopifyAccessToken); static != nil {
			chain = append(chain, static)
		}
	}
	if pool != nil {
		chain = append(chain, sessions.NewPostgresStore(pool))
	}
	return chain
}

// BuildShopifyClient returns the Admin API client.
func BuildShopifyClient(cfg *appconfig.Config, logger *logging.Logger) *shopify.Client {
	opts := []shopify.Option{}
	if cfg != nil {
		opts = append(opts, shopify.WithAPIVersion(cfg.ShopifyAPIVersion))
		if cfg.ShopifyAdminBaseURL != "" {
			opts = append(opts, shopify.WithBaseURL(cfg.ShopifyAdminBaseURL))
		}
	}
	return shopify.NewClient(logger, opts...)
}

// BuildConfigStore layers the Redis cache over the metafield store. A nil
// redis client leaves the metafield store uncached.
func BuildConfigStore(cfg *appconfig.Config, client *shopify.Client, tokens sessions.TokenSource, redisClient *redis.Client, logger *logging.Logger) delivery.Store {
	var store delivery.Store = shopify.NewMetafieldStore(client, tokens, logger)
	if redisClient == nil {
		return store
	}
	ttl := delivery.DefaultCacheTTL
	if cfg != nil {
		ttl = cfg.ConfigCacheTTL
	}
	return delivery.NewCachedStore(store, redisClient, ttl, logger)
}

// DevShop returns the shop to pin requests to when session-token auth cannot
// run: a development environment with no app secret but a static shop.
func DevShop(cfg *appconfig.Config) string {
	if cfg == nil || cfg.Env != "development" || cfg.ShopifyAPISecret != "" {
		return ""
	}
	return strings.TrimSpace(cfg.ShopifyShopDomain)
}
