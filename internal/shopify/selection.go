package shopify

import (
	"context"
	"errors"
	"strings"

	"github.com/wolfman30/blocked-delivery-dates/internal/delivery"
	"github.com/wolfman30/blocked-delivery-dates/internal/sessions"
	"github.com/wolfman30/blocked-delivery-dates/pkg/logging"
)

// ErrMissingOrder is returned when a selection names no order.
var ErrMissingOrder = errors.New("shopify: order id required")

const orderGIDPrefix = "gid://shopify/Order/"

// OrderGID turns a numeric order id into its global id. Global ids pass through.
func OrderGID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, "gid://") {
		return id
	}
	return orderGIDPrefix + id
}

// SelectionWriter records the buyer's chosen delivery date on the order as
// delivery.selected_date.
type SelectionWriter struct {
	client *Client
	tokens sessions.TokenSource
	logger *logging.Logger
}

// NewSelectionWriter creates a writer for per-order selections.
func NewSelectionWriter(client *Client, tokens sessions.TokenSource, logger *logging.Logger) *SelectionWriter {
	if logger == nil {
		logger = logging.Default()
	}
	return &SelectionWriter{client: client, tokens: tokens, logger: logger}
}

// WriteSelectedDate writes day (already in delivery.DateLayout) once. There is no retry.
func (w *SelectionWriter) WriteSelectedDate(ctx context.Context, shop, orderID, day string) error {
	owner := OrderGID(orderID)
	if owner == "" {
		return ErrMissingOrder
	}
	token, err := w.tokens.AccessToken(ctx, shop)
	if err != nil {
		return err
	}
	_, err = w.client.SetMetafields(ctx, Credentials{Shop: shop, AccessToken: token}, []MetafieldInput{{
		OwnerID:   owner,
		Namespace: delivery.SelectionNamespace,
		Key:       delivery.SelectionKey,
		Type:      TypeSingleLine,
		Value:     day,
	}})
	if err != nil {
		return err
	}
	w.logger.Info("delivery date recorded", "shop", shop, "order", owner, "date", day)
	return nil
}
