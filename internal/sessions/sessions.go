// Package sessions supplies the Admin API access token for a shop. Tokens are
// issued by the platform's install flow, which lives outside this service.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/blocked-delivery-dates/internal/tenancy"
)

// ErrSessionNotFound is returned when no access token is known for a shop.
var ErrSessionNotFound = errors.New("sessions: no offline session for shop")

// Session is an offline (non-expiring) Admin API session.
type Session struct {
	Shop        string
	AccessToken string
	Scope       string
	InstalledAt time.Time
}

// TokenSource resolves the Admin API access token of a shop.
type TokenSource interface {
	AccessToken(ctx context.Context, shop string) (string, error)
}

// StaticTokenSource serves one token for one shop, for single-store installs
// configured through the environment.
type StaticTokenSource struct {
	shop  string
	token string
}

// NewStaticTokenSource returns nil when shop or token is blank.
func NewStaticTokenSource(shop, token string) *StaticTokenSource {
	shop = tenancy.NormalizeShop(shop)
	token = strings.TrimSpace(token)
	if shop == "" || token == "" {
		return nil
	}
	return &StaticTokenSource{shop: shop, token: token}
}

func (s *StaticTokenSource) AccessToken(_ context.Context, shop string) (string, error) {
	if s == nil || tenancy.NormalizeShop(shop) != s.shop {
		return "", ErrSessionNotFound
	}
	return s.token, nil
}

// Chain tries each source in order and returns the first token found.
type Chain []TokenSource

func (c Chain) AccessToken(ctx context.Context, shop string) (string, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		token, err := src.AccessToken(ctx, shop)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return "", err
		}
	}
	return "", ErrSessionNotFound
}

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps offline sessions in the shop_sessions table.
type PostgresStore struct {
	pool rowQuerier
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("sessions: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

func newPostgresStoreWithExec(exec rowQuerier) *PostgresStore {
	if exec == nil {
		panic("sessions: exec required")
	}
	return &PostgresStore{pool: exec}
}

// Get loads the session of a shop.
func (s *PostgresStore) Get(ctx context.Context, shop string) (*Session, error) {
	query := `SELECT shop, access_token, scope, installed_at FROM shop_sessions WHERE shop = $1`
	var sess Session
	err := s.pool.QueryRow(ctx, query, tenancy.NormalizeShop(shop)).Scan(&sess.Shop, &sess.AccessToken, &sess.Scope, &sess.InstalledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("sessions: get: %w", err)
	}
	return &sess, nil
}

func (s *PostgresStore) AccessToken(ctx context.Context, shop string) (string, error) {
	sess, err := s.Get(ctx, shop)
	if err != nil {
		return "", err
	}
	return sess.AccessToken, nil
}

// Save inserts or replaces the session of sess.Shop.
func (s *PostgresStore) Save(ctx context.Context, sess Session) error {
	shop := tenancy.NormalizeShop(sess.Shop)
	if shop == "" || strings.TrimSpace(sess.AccessToken) == "" {
		return errors.New("sessions: shop and access token are required")
	}
	if sess.InstalledAt.IsZero() {
		sess.InstalledAt = time.Now().UTC()
	}
	query := `
		INSERT INTO shop_sessions (shop, access_token, scope, installed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (shop) DO UPDATE
		SET access_token = EXCLUDED.access_token,
			scope = EXCLUDED.scope,
			installed_at = EXCLUDED.installed_at
	`
	if _, err := s.pool.Exec(ctx, query, shop, sess.AccessToken, sess.Scope, sess.InstalledAt); err != nil {
		return fmt.Errorf("sessions: save: %w", err)
	}
	return nil
}
