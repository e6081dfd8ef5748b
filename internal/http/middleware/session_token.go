package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/blocked-delivery-dates/internal/tenancy"
)

type contextKey string

const sessionClaimsKey contextKey = "sessionClaims"

// SessionClaims are the claims of a Shopify session token, issued to embedded
// admin pages and checkout extensions and signed with the app's API secret.
type SessionClaims struct {
	Dest string `json:"dest"`
	SID  string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Shop returns the shop domain named by the dest claim.
func (c SessionClaims) Shop() string {
	dest := strings.TrimSpace(c.Dest)
	if u, err := url.Parse(dest); err == nil && u.Host != "" {
		dest = u.Host
	}
	return tenancy.NormalizeShop(dest)
}

// SessionToken verifies the bearer session token (HS256 over secret, audience
// apiKey) and puts the shop and claims on the request context.
func SessionToken(apiKey, secret string) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(apiKey),
		jwt.WithLeeway(5*time.Second),
		jwt.WithExpirationRequired(),
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" || apiKey == "" {
				http.Error(w, "session auth not configured", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			claims := SessionClaims{}
			token, err := parser.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), &claims, func(*jwt.Token) (any, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid session token", http.StatusUnauthorized)
				return
			}
			shop := claims.Shop()
			if shop == "" {
				http.Error(w, "session token names no shop", http.StatusUnauthorized)
				return
			}
			ctx := tenancy.WithShop(WithSessionClaims(r.Context(), claims), shop)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSessionClaims stores verified session claims on ctx.
func WithSessionClaims(ctx context.Context, claims SessionClaims) context.Context {
	return context.WithValue(ctx, sessionClaimsKey, claims)
}

// SessionClaimsFromContext returns the verified session claims if present.
func SessionClaimsFromContext(ctx context.Context) (SessionClaims, bool) {
	claims, ok := ctx.Value(sessionClaimsKey).(SessionClaims)
	return claims, ok
}
