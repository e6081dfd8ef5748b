package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "SHOPIFY_API_VERSION", "CONFIG_CACHE_TTL",
		"CORS_ALLOWED_ORIGINS", "CHECKOUT_RATE_LIMIT", "CHECKOUT_RATE_BURST", "ENFORCE_SELECTION_CHECK", "REDIS_TLS"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected default env production, got %s", cfg.Env)
	}
	if cfg.ShopifyAPIVersion != "2024-07" {
		t.Fatalf("expected default api version, got %s", cfg.ShopifyAPIVersion)
	}
	if cfg.ConfigCacheTTL != 5*time.Minute {
		t.Fatalf("expected default cache ttl, got %s", cfg.ConfigCacheTTL)
	}
	if cfg.CheckoutRateLimit != 10 || cfg.CheckoutRateBurst != 20 {
		t.Fatalf("unexpected rate defaults %v/%d", cfg.CheckoutRateLimit, cfg.CheckoutRateBurst)
	}
	if cfg.EnforceSelectionCheck {
		t.Fatalf("expected selection check off by default")
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected shopify origins by default, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "staging")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("SHOPIFY_API_KEY", "key")
	t.Setenv("SHOPIFY_API_SECRET", "secret")
	t.Setenv("SHOPIFY_SHOP_DOMAIN", "demo.myshopify.com")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat_1")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CONFIG_CACHE_TTL", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("CHECKOUT_RATE_LIMIT", "2.5")
	t.Setenv("CHECKOUT_RATE_BURST", "4")
	t.Setenv("ENFORCE_SELECTION_CHECK", "true")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "staging" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected database url override, got %s", cfg.DatabaseURL)
	}
	if cfg.ShopifyAPIKey != "key" || cfg.ShopifyAPISecret != "secret" {
		t.Fatalf("expected shopify credentials")
	}
	if cfg.ShopifyShopDomain != "demo.myshopify.com" || cfg.ShopifyAccessToken != "shpat_1" {
		t.Fatalf("expected static shop settings")
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if cfg.ConfigCacheTTL != 90*time.Second {
		t.Fatalf("expected cache ttl override, got %s", cfg.ConfigCacheTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.CheckoutRateLimit != 2.5 || cfg.CheckoutRateBurst != 4 {
		t.Fatalf("unexpected rate overrides %v/%d", cfg.CheckoutRateLimit, cfg.CheckoutRateBurst)
	}
	if !cfg.EnforceSelectionCheck {
		t.Fatalf("expected selection check enabled")
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("CHECKOUT_RATE_BURST", "lots")
	t.Setenv("CONFIG_CACHE_TTL", "soon")
	cfg := Load()
	if cfg.CheckoutRateBurst != 20 {
		t.Fatalf("expected default burst, got %d", cfg.CheckoutRateBurst)
	}
	if cfg.ConfigCacheTTL != 5*time.Minute {
		t.Fatalf("expected default ttl, got %s", cfg.ConfigCacheTTL)
	}
}
