// Package audit keeps an append-only history of merchant saves.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wolfman30/blocked-delivery-dates/internal/delivery"
)

// Entry is one saved version of a shop's blocked dates.
type Entry struct {
	ID        string          `json:"id"`
	Shop      string          `json:"shop"`
	Actor     string          `json:"actor,omitempty"`
	Config    delivery.Config `json:"config"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Service writes and reads the blocked_dates_audit table.
type Service struct {
	db *sql.DB
}

// NewService creates an audit service. A nil db yields a service whose
// methods are no-ops.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Record appends a saved config for shop.
func (s *Service) Record(ctx context.Context, shop, actor string, cfg delivery.Config) error {
	if s == nil || s.db == nil {
		return nil
	}
	ranges, err := json.Marshal(cfg.Clone().BlockedRanges)
	if err != nil {
		return fmt.Errorf("audit: marshal ranges: %w", err)
	}
	weekdays := make([]int64, 0, len(cfg.BlockedWeekdays))
	for _, wd := range cfg.BlockedWeekdays {
		weekdays = append(weekdays, int64(wd))
	}

	query := `
		INSERT INTO blocked_dates_audit (
			id, shop, actor, blocked_weekdays, blocked_dates, blocked_ranges, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.NewString(),
		shop,
		nullString(actor),
		pq.Array(weekdays),
		pq.Array(cfg.Clone().BlockedDates),
		ranges,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("audit: record save: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for shop, newest first.
func (s *Service) Recent(ctx context.Context, shop string, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := `
		SELECT id, shop, actor, blocked_weekdays, blocked_dates, blocked_ranges, created_at
		FROM blocked_dates_audit
		WHERE shop = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, shop, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			actor    sql.NullString
			weekdays []int64
			dates    []string
			ranges   []byte
		)
		if err := rows.Scan(&e.ID, &e.Shop, &actor, pq.Array(&weekdays), pq.Array(&dates), &ranges, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan history: %w", err)
		}
		e.Actor = actor.String
		e.Config = delivery.DefaultConfig()
		for _, wd := range weekdays {
			e.Config.BlockedWeekdays = append(e.Config.BlockedWeekdays, time.Weekday(wd))
		}
		e.Config.BlockedDates = append(e.Config.BlockedDates, dates...)
		if len(ranges) > 0 {
			if err := json.Unmarshal(ranges, &e.Config.BlockedRanges); err != nil {
				return nil, fmt.Errorf("audit: decode ranges: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate history: %w", err)
	}
	return entries, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
