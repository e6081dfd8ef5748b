package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrShopResolution means the acting shop's identity could not be determined,
// so nothing may be written on its behalf.
var ErrShopResolution = errors.New("shopify: shop id not found")

// Metafield value types used by this service.
const (
	TypeJSON       = "json"
	TypeSingleLine = "single_line_text_field"
)

// MetafieldInput is one entry of a metafieldsSet mutation.
type MetafieldInput struct {
	OwnerID   string `json:"ownerId"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// Metafield identifies a stored metafield.
type Metafield struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
}

// UserError is a field-level rejection returned by a mutation.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// UserErrors reports every rejection of a mutation as one message.
type UserErrors []UserError

func (e UserErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, ue := range e {
		if len(ue.Field) == 0 {
			parts = append(parts, ue.Message)
			continue
		}
		parts = append(parts, strings.Join(ue.Field, ".")+": "+ue.Message)
	}
	return strings.Join(parts, "; ")
}

const shopIDQuery = `query ShopID {
	shop {
		id
	}
}`

// ShopID returns the shop's global id (gid://shopify/Shop/...).
func (c *Client) ShopID(ctx context.Context, creds Credentials) (string, error) {
	var data struct {
		Shop struct {
			ID string `json:"id"`
		} `json:"shop"`
	}
	if err := c.Do(ctx, creds, "ShopID", shopIDQuery, nil, &data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrShopResolution, err)
	}
	if strings.TrimSpace(data.Shop.ID) == "" {
		return "", ErrShopResolution
	}
	return data.Shop.ID, nil
}

const shopMetafieldQuery = `query ShopMetafield($namespace: String!, $key: String!) {
	shop {
		metafield(namespace: $namespace, key: $key) {
			id
			value
		}
	}
}`

// ShopMetafield reads one shop-owned metafield. found is false when the shop never set it.
func (c *Client) ShopMetafield(ctx context.Context, creds Credentials, namespace, key string) (value string, found bool, err error) {
	var data struct {
		Shop struct {
			Metafield *struct {
				ID    string `json:"id"`
				Value string `json:"value"`
			} `json:"metafield"`
		} `json:"shop"`
	}
	variables := map[string]any{"namespace": namespace, "key": key}
	if err := c.Do(ctx, creds, "ShopMetafield", shopMetafieldQuery, variables, &data); err != nil {
		return "", false, fmt.Errorf("shopify: read metafield %s.%s: %w", namespace, key, err)
	}
	if data.Shop.Metafield == nil {
		return "", false, nil
	}
	return data.Shop.Metafield.Value, true, nil
}

const metafieldsSetMutation = `mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
	metafieldsSet(metafields: $metafields) {
		metafields {
			id
			namespace
			key
		}
		userErrors {
			field
			message
		}
	}
}`

// SetMetafields writes the given metafields in one mutation, replacing existing
// values. Any userErrors are returned together as UserErrors.
func (c *Client) SetMetafields(ctx context.Context, creds Credentials, inputs []MetafieldInput) ([]Metafield, error) {
	var data struct {
		MetafieldsSet struct {
			Metafields []Metafield `json:"metafields"`
			UserErrors UserErrors  `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	variables := map[string]any{"metafields": inputs}
	if err := c.Do(ctx, creds, "metafieldsSet", metafieldsSetMutation, variables, &data); err != nil {
		return nil, fmt.Errorf("shopify: set metafields: %w", err)
	}
	if len(data.MetafieldsSet.UserErrors) > 0 {
		return nil, data.MetafieldsSet.UserErrors
	}
	return data.MetafieldsSet.Metafields, nil
}
