// Command register-shop stores an offline Admin API token for a shop, for
// installs whose OAuth flow runs outside this service.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/blocked-delivery-dates/internal/app/bootstrap"
	appconfig "github.com/wolfman30/blocked-delivery-dates/internal/config"
	"github.com/wolfman30/blocked-delivery-dates/internal/sessions"
	"github.com/wolfman30/blocked-delivery-dates/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	shop := flag.String("shop", "", "shop domain, e.g. demo.myshopify.com")
	token := flag.String("token", "", "offline Admin API access token")
	scope := flag.String("scope", "read_metafields,write_metafields", "granted scopes")
	flag.Parse()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
	if err != nil || pool == nil {
		logger.Error("register-shop requires DATABASE_URL", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := sessions.NewPostgresStore(pool)
	if err := store.Save(ctx, sessions.Session{Shop: *shop, AccessToken: *token, Scope: *scope}); err != nil {
		logger.Error("failed to register shop", "shop", *shop, "error", err)
		os.Exit(1)
	}
	logger.Info("shop registered", "shop", *shop)
}
