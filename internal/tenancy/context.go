// Package tenancy carries the acting shop on a request context.
package tenancy

import (
	"context"
	"strings"
)

type ctxKey string

const shopKey ctxKey = "delivery.shop"

// WithShop stores the shop domain (e.g. "demo.myshopify.com") in context.
func WithShop(ctx context.Context, shop string) context.Context {
	return context.WithValue(ctx, shopKey, NormalizeShop(shop))
}

// ShopFromContext extracts the shop domain if present.
func ShopFromContext(ctx context.Context) (string, bool) {
	shop, ok := ctx.Value(shopKey).(string)
	return shop, ok && shop != ""
}

// NormalizeShop lowercases a shop domain and strips any scheme or path, so
// "https://Demo.myshopify.com/admin" becomes "demo.myshopify.com".
func NormalizeShop(shop string) string {
	s := strings.ToLower(strings.TrimSpace(shop))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}
