package shopify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/wolfman30/blocked-delivery-dates/internal/sessions"
	"github.com/wolfman30/blocked-delivery-dates/pkg/logging"
)

const testShop = "demo.myshopify.com"

// fakeAdmin is an in-memory Admin GraphQL endpoint for one shop.
type fakeAdmin struct {
	mu         sync.Mutex
	shopID     string
	metafields map[string]MetafieldInput // keyed by owner|namespace.key
	userErrors []UserError
	failStatus int
	tokens     []string
	requests   []string
}

func newFakeAdmin() *fakeAdmin {
	return &fakeAdmin{
		shopID:     "gid://shopify/Shop/1",
		metafields: map[string]MetafieldInput{},
	}
}

func metafieldKey(owner, namespace, key string) string {
	return owner + "|" + namespace + "." + key
}

func (f *fakeAdmin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tokens = append(f.tokens, r.Header.Get("X-Shopify-Access-Token"))
	if f.failStatus != 0 {
		http.Error(w, "upstream unavailable", f.failStatus)
		return
	}

	body, _ := io.ReadAll(r.Body)
	var req struct {
		Query     string          `json:"query"`
		Variables json.RawMessage `json:"variables"`
	}
	_ = json.Unmarshal(body, &req)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.Contains(req.Query, "query ShopID"):
		f.requests = append(f.requests, "ShopID")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"shop": map[string]any{"id": f.shopID}}})
	case strings.Contains(req.Query, "query ShopMetafield"):
		f.requests = append(f.requests, "ShopMetafield")
		var vars struct{ Namespace, Key string }
		_ = json.Unmarshal(req.Variables, &vars)
		var mf any
		if stored, ok := f.metafields[metafieldKey(f.shopID, vars.Namespace, vars.Key)]; ok {
			mf = map[string]any{"id": "gid://shopify/Metafield/9", "value": stored.Value}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"shop": map[string]any{"metafield": mf}}})
	case strings.Contains(req.Query, "mutation metafieldsSet"):
		f.requests = append(f.requests, "metafieldsSet")
		var vars struct {
			Metafields []MetafieldInput `json:"metafields"`
		}
		_ = json.Unmarshal(req.Variables, &vars)
		if len(f.userErrors) > 0 {
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"metafieldsSet": map[string]any{
				"metafields": []any{}, "userErrors": f.userErrors,
			}}})
			return
		}
		out := make([]Metafield, 0, len(vars.Metafields))
		for _, in := range vars.Metafields {
			f.metafields[metafieldKey(in.OwnerID, in.Namespace, in.Key)] = in
			out = append(out, Metafield{ID: "gid://shopify/Metafield/9", Namespace: in.Namespace, Key: in.Key})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"metafieldsSet": map[string]any{
			"metafields": out, "userErrors": []any{},
		}}})
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{"errors": []map[string]string{{"message": "unknown operation"}}})
	}
}

func (f *fakeAdmin) stored(owner, namespace, key string) (MetafieldInput, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mf, ok := f.metafields[metafieldKey(owner, namespace, key)]
	return mf, ok
}

func newTestClient(t *testing.T, admin *fakeAdmin) *Client {
	t.Helper()
	srv := httptest.NewServer(admin)
	t.Cleanup(srv.Close)
	return NewClient(logging.New("error"), WithBaseURL(srv.URL), WithAPIVersion("2024-07"))
}

func testTokens() sessions.TokenSource {
	return sessions.NewStaticTokenSource(testShop, "shpat_test")
}
