package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/blocked-delivery-dates/internal/admin"
	"github.com/wolfman30/blocked-delivery-dates/internal/api/router"
	"github.com/wolfman30/blocked-delivery-dates/internal/app/bootstrap"
	"github.com/wolfman30/blocked-delivery-dates/internal/audit"
	"github.com/wolfman30/blocked-delivery-dates/internal/checkout"
	appconfig "github.com/wolfman30/blocked-delivery-dates/internal/config"
	httpmiddleware "github.com/wolfman30/blocked-delivery-dates/internal/http/middleware"
	"github.com/wolfman30/blocked-delivery-dates/internal/observability/metrics"
	"github.com/wolfman30/blocked-delivery-dates/internal/shopify"
	"github.com/wolfman30/blocked-delivery-dates/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting blocked-delivery-dates API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"shopify_api_version", cfg.ShopifyAPIVersion,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	auditDB, err := bootstrap.BuildAuditDB(cfg)
	if err != nil {
		logger.Error("failed to open audit database", "error", err)
		os.Exit(1)
	}
	var auditLog admin.AuditLog
	if auditDB != nil {
		defer auditDB.Close()
		auditLog = audit.NewService(auditDB)
	}

	tokens := bootstrap.BuildTokenSource(cfg, pool)
	shopifyClient := bootstrap.BuildShopifyClient(cfg, logger)
	store := bootstrap.BuildConfigStore(cfg, shopifyClient, tokens, redisClient, logger)

	metricsHandler, deliveryMetrics := setupMetrics()

	limiter := httpmiddleware.NewRateLimiter(cfg.CheckoutRateLimit, cfg.CheckoutRateBurst)
	go limiter.RunEviction(5*time.Minute, ctx.Done())

	devShop := bootstrap.DevShop(cfg)
	if devShop != "" {
		logger.Error("session token auth disabled, pinning requests to static shop", "shop", devShop, "env", cfg.Env)
	}

	r := router.New(&router.Config{
		Logger:       logger,
		AdminHandler: admin.NewHandler(store, auditLog, deliveryMetrics, logger),
		CheckoutHandler: checkout.NewHandler(checkout.HandlerConfig{
			Store:                 store,
			Writer:                shopify.NewSelectionWriter(shopifyClient, tokens, logger),
			Metrics:               deliveryMetrics,
			Logger:                logger,
			EnforceSelectionCheck: cfg.EnforceSelectionCheck,
		}),
		MetricsHandler:     metricsHandler,
		ShopifyAPIKey:      cfg.ShopifyAPIKey,
		ShopifyAPISecret:   cfg.ShopifyAPISecret,
		DevShop:            devShop,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		CheckoutLimiter:    limiter,
		Ready:              readinessCheck(redisClient, pool),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func setupMetrics() (http.Handler, *metrics.DeliveryMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), metrics.NewDeliveryMetrics(registry)
}

// readinessCheck pings whichever backing services are configured.
func readinessCheck(redisClient *redis.Client, pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
		}
		return nil
	}
}
