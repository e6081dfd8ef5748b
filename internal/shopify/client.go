// Package shopify is a minimal Admin GraphQL client covering shop identity
// lookup and metafield reads and writes.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/blocked-delivery-dates/pkg/logging"
)

const (
	// DefaultAPIVersion is the Admin API version requested when none is configured.
	DefaultAPIVersion = "2024-07"
	defaultTimeout    = 15 * time.Second
)

var tracer = otel.Tracer("delivery.internal.shopify")

// Credentials authorize Admin API calls for one shop.
type Credentials struct {
	Shop        string
	AccessToken string
}

// Client is a Shopify Admin GraphQL API client.
type Client struct {
	httpClient *http.Client
	apiVersion string
	baseURL    string
	logger     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAPIVersion pins the Admin API version, e.g. "2024-07".
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if v := strings.TrimSpace(version); v != "" {
			c.apiVersion = v
		}
	}
}

// WithBaseURL sends every request to baseURL instead of https://<shop>.
// Used for local proxies and tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a new Admin API client.
func NewClient(logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiVersion: DefaultAPIVersion,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) endpoint(shop string) string {
	base := c.baseURL
	if base == "" {
		base = "https://" + shop
	}
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", base, c.apiVersion)
}

type graphqlRequest struct {
	Query     string `json:"query"`
	Variables any    `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GraphQLError carries top-level GraphQL errors (as opposed to mutation userErrors).
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "shopify: graphql: " + strings.Join(e.Messages, "; ")
}

// Do executes a GraphQL operation and decodes the "data" member into out.
func (c *Client) Do(ctx context.Context, creds Credentials, operation, query string, variables any, out any) error {
	ctx, span := tracer.Start(ctx, "shopify.admin."+operation, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("shopify.shop", creds.Shop),
		attribute.String("shopify.api_version", c.apiVersion),
	)

	err := c.do(ctx, creds, query, variables, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, operation+" failed")
		c.logger.Warn("shopify admin call failed", "shop", creds.Shop, "operation", operation, "error", err)
	}
	return err
}

func (c *Client) do(ctx context.Context, creds Credentials, query string, variables any, out any) error {
	jsonBody, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("shopify: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(creds.Shop), bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("shopify: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", creds.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shopify: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("shopify: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("shopify: admin API returned %d: %s", resp.StatusCode, string(respBody[:min(200, len(respBody))]))
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("shopify: unmarshal response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		gqlErr := &GraphQLError{}
		for _, e := range envelope.Errors {
			gqlErr.Messages = append(gqlErr.Messages, e.Message)
		}
		return gqlErr
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("shopify: unmarshal data: %w", err)
	}
	return nil
}
