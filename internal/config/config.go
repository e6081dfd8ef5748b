package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Shopify app credentials. Session tokens are verified against these.
	ShopifyAPIKey     string
	ShopifyAPISecret  string
	ShopifyAPIVersion string
	// Optional single-shop install: an offline token supplied out of band.
	ShopifyShopDomain  string
	ShopifyAccessToken string
	// Overrides https://<shop> for Admin API calls (local proxies, dev stores).
	ShopifyAdminBaseURL string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	ConfigCacheTTL     time.Duration
	CORSAllowedOrigins []string

	CheckoutRateLimit float64
	CheckoutRateBurst int

	// EnforceSelectionCheck rejects buyer selections that fall on a blocked date.
	EnforceSelectionCheck bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ShopifyAPIKey:       getEnv("SHOPIFY_API_KEY", ""),
		ShopifyAPISecret:    getEnv("SHOPIFY_API_SECRET", ""),
		ShopifyAPIVersion:   getEnv("SHOPIFY_API_VERSION", "2024-07"),
		ShopifyShopDomain:   getEnv("SHOPIFY_SHOP_DOMAIN", ""),
		ShopifyAccessToken:  getEnv("SHOPIFY_ACCESS_TOKEN", ""),
		ShopifyAdminBaseURL: getEnv("SHOPIFY_ADMIN_BASE_URL", ""),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		ConfigCacheTTL:     getEnvAsDuration("CONFIG_CACHE_TTL", 5*time.Minute),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"https://extensions.shopifycdn.com", "https://*.myshopify.com"}),

		CheckoutRateLimit: getEnvAsFloat("CHECKOUT_RATE_LIMIT", 10),
		CheckoutRateBurst: getEnvAsInt("CHECKOUT_RATE_BURST", 20),

		EnforceSelectionCheck: getEnvAsBool("ENFORCE_SELECTION_CHECK", false),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blank items.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
