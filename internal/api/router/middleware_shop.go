package router

import (
	"net/http"

	"github.com/wolfman30/blocked-delivery-dates/internal/tenancy"
)

// staticShop pins every request to one shop. It stands in for session-token
// auth on development installs that have no app secret.
func staticShop(shop string) func(http.Handler) http.Handler {
	shop = tenancy.NormalizeShop(shop)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(tenancy.WithShop(r.Context(), shop)))
		})
	}
}

// requireShop rejects requests that reached a shop-scoped route unauthenticated.
func requireShop(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := tenancy.ShopFromContext(r.Context()); !ok {
			http.Error(w, "shop required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
