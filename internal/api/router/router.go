package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/blocked-delivery-dates/internal/admin"
	"github.com/wolfman30/blocked-delivery-dates/internal/checkout"
	httpmiddleware "github.com/wolfman30/blocked-delivery-dates/internal/http/middleware"
	"github.com/wolfman30/blocked-delivery-dates/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	AdminHandler    *admin.Handler
	CheckoutHandler *checkout.Handler
	MetricsHandler  http.Handler

	// Session tokens are verified with the app's API key and secret.
	ShopifyAPIKey    string
	ShopifyAPISecret string
	// DevShop replaces session-token auth with a fixed shop. Development only.
	DevShop string

	CORSAllowedOrigins []string
	CheckoutLimiter    *httpmiddleware.RateLimiter

	// Ready reports whether backing services are reachable (optional).
	Ready func(ctx context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		public.Get("/ready", ready(cfg.Ready))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	auth := httpmiddleware.SessionToken(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret)
	if cfg.DevShop != "" {
		auth = staticShop(cfg.DevShop)
	}

	if cfg.AdminHandler != nil {
		r.With(auth, requireShop).Mount("/api/blocked-dates", cfg.AdminHandler.Routes())
	}

	if cfg.CheckoutHandler != nil {
		co := r.With(auth, requireShop)
		if cfg.CheckoutLimiter != nil {
			co = co.With(httpmiddleware.RateLimit(cfg.CheckoutLimiter))
		}
		co.Mount("/checkout", cfg.CheckoutHandler.Routes())
	}

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func ready(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
