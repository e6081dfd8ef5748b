package shopify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wolfman30/blocked-delivery-dates/internal/delivery"
	"github.com/wolfman30/blocked-delivery-dates/internal/sessions"
	"github.com/wolfman30/blocked-delivery-dates/pkg/logging"
)

// MetafieldStore persists each shop's config in the shop-owned metafield
// custom.locked_delivery_data.
type MetafieldStore struct {
	client *Client
	tokens sessions.TokenSource
	logger *logging.Logger
}

var _ delivery.Store = (*MetafieldStore)(nil)

// NewMetafieldStore creates a metafield-backed config store.
func NewMetafieldStore(client *Client, tokens sessions.TokenSource, logger *logging.Logger) *MetafieldStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &MetafieldStore{client: client, tokens: tokens, logger: logger}
}

func (s *MetafieldStore) credentials(ctx context.Context, shop string) (Credentials, error) {
	token, err := s.tokens.AccessToken(ctx, shop)
	if err != nil {
		return Credentials{}, fmt.Errorf("shopify: access token for %s: %w", shop, err)
	}
	return Credentials{Shop: shop, AccessToken: token}, nil
}

// Load returns the shop's config. An unset metafield is the empty default and
// an unparseable value is replaced by it.
func (s *MetafieldStore) Load(ctx context.Context, shop string) (delivery.Config, error) {
	creds, err := s.credentials(ctx, shop)
	if err != nil {
		return delivery.Config{}, err
	}
	value, found, err := s.client.ShopMetafield(ctx, creds, delivery.ConfigNamespace, delivery.ConfigKey)
	if err != nil {
		return delivery.Config{}, err
	}
	if !found {
		return delivery.DefaultConfig(), nil
	}
	cfg, err := delivery.Decode([]byte(value))
	if err != nil {
		s.logger.Warn("stored blocked dates unreadable, using empty config", "shop", shop, "error", err)
		return delivery.DefaultConfig(), nil
	}
	return cfg, nil
}

// Save resolves the shop's id and overwrites the metafield with cfg.
func (s *MetafieldStore) Save(ctx context.Context, shop string, cfg delivery.Config) error {
	creds, err := s.credentials(ctx, shop)
	if err != nil {
		return err
	}
	ownerID, err := s.client.ShopID(ctx, creds)
	if err != nil {
		return err
	}
	value, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("shopify: marshal config: %w", err)
	}
	_, err = s.client.SetMetafields(ctx, creds, []MetafieldInput{{
		OwnerID:   ownerID,
		Namespace: delivery.ConfigNamespace,
		Key:       delivery.ConfigKey,
		Type:      TypeJSON,
		Value:     string(value),
	}})
	return err
}
