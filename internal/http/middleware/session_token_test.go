package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/blocked-delivery-dates/internal/tenancy"
)

const (
	testAPIKey = "app-key"
	testSecret = "app-secret"
)

func signedSessionToken(t *testing.T, secret string, mutate func(*SessionClaims)) string {
	t.Helper()
	now := time.Now()
	claims := SessionClaims{
		Dest: "https://demo.myshopify.com",
		SID:  "session-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://demo.myshopify.com/admin",
			Subject:   "42",
			Audience:  jwt.ClaimStrings{testAPIKey},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Second)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	if mutate != nil {
		mutate(&claims)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func serveWithToken(t *testing.T, token string, next http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/blocked-dates", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	SessionToken(testAPIKey, testSecret)(next).ServeHTTP(rec, req)
	return rec
}

func unreachable(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be called")
	}
}

func TestSessionTokenValid(t *testing.T) {
	called := false
	rec := serveWithToken(t, signedSessionToken(t, testSecret, nil), func(w http.ResponseWriter, r *http.Request) {
		called = true
		shop, ok := tenancy.ShopFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, "demo.myshopify.com", shop)

		claims, ok := SessionClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "42", claims.Subject)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSessionTokenRejects(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"missing header", func(t *testing.T) string { return "" }},
		{"wrong secret", func(t *testing.T) string { return signedSessionToken(t, "other", nil) }},
		{"wrong audience", func(t *testing.T) string {
			return signedSessionToken(t, testSecret, func(c *SessionClaims) { c.Audience = jwt.ClaimStrings{"other-app"} })
		}},
		{"expired", func(t *testing.T) string {
			return signedSessionToken(t, testSecret, func(c *SessionClaims) {
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			})
		}},
		{"no expiry", func(t *testing.T) string {
			return signedSessionToken(t, testSecret, func(c *SessionClaims) { c.ExpiresAt = nil })
		}},
		{"no shop", func(t *testing.T) string {
			return signedSessionToken(t, testSecret, func(c *SessionClaims) { c.Dest = "" })
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveWithToken(t, tt.token(t), unreachable(t))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestSessionTokenUnconfigured(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/blocked-dates", nil)
	req.Header.Set("Authorization", "Bearer "+signedSessionToken(t, testSecret, nil))
	rec := httptest.NewRecorder()

	SessionToken("", "")(unreachable(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionClaimsShop(t *testing.T) {
	assert.Equal(t, "demo.myshopify.com", SessionClaims{Dest: "https://Demo.myshopify.com"}.Shop())
	assert.Equal(t, "demo.myshopify.com", SessionClaims{Dest: "demo.myshopify.com"}.Shop())
	assert.Equal(t, "", SessionClaims{}.Shop())
}
