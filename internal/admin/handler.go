// Package admin serves the merchant-facing blocked dates API.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/blocked-delivery-dates/internal/audit"
	"github.com/wolfman30/blocked-delivery-dates/internal/delivery"
	"github.com/wolfman30/blocked-delivery-dates/internal/http/middleware"
	"github.com/wolfman30/blocked-delivery-dates/internal/observability/metrics"
	"github.com/wolfman30/blocked-delivery-dates/internal/tenancy"
	"github.com/wolfman30/blocked-delivery-dates/pkg/logging"
)

// FallbackHeader is set on reads that served the empty config because the
// stored record could not be loaded.
const FallbackHeader = "X-Blocked-Dates-Fallback"

const maxBodyBytes = 1 << 20

var tracer = otel.Tracer("delivery.internal.admin")

// AuditLog records and lists saved configs.
type AuditLog interface {
	Record(ctx context.Context, shop, actor string, cfg delivery.Config) error
	Recent(ctx context.Context, shop string, limit int) ([]audit.Entry, error)
}

// Handler provides HTTP endpoints for a shop's blocked delivery dates.
type Handler struct {
	store   delivery.Store
	audit   AuditLog
	metrics *metrics.DeliveryMetrics
	logger  *logging.Logger
}

// NewHandler creates a new admin handler. auditLog and m may be nil.
func NewHandler(store delivery.Store, auditLog AuditLog, m *metrics.DeliveryMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, audit: auditLog, metrics: m, logger: logger}
}

// Routes returns the admin routes. The caller must authenticate the shop.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetConfig)
	r.Post("/", h.SaveConfig)
	r.Post("/draft", h.ApplyDraft)
	r.Get("/history", h.History)
	return r
}

// GetConfig returns the shop's config. Store failures degrade to the empty config.
// GET /api/blocked-dates
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	shop, ok := tenancy.ShopFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "shop required")
		return
	}
	cfg, fallback := h.load(r.Context(), shop)
	if fallback {
		w.Header().Set(FallbackHeader, "true")
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) load(ctx context.Context, shop string) (delivery.Config, bool) {
	start := time.Now()
	cfg, err := h.store.Load(ctx, shop)
	h.metrics.ObserveStoreLatency("load", time.Since(start).Seconds())
	if err != nil {
		h.logger.Error("failed to load blocked dates", "shop", shop, "error", err)
		h.metrics.ObserveFallback("admin")
		return delivery.DefaultConfig(), true
	}
	return cfg, false
}

// SaveRequest carries the whole config document. Payload may be the document
// itself or a string holding it.
type SaveRequest struct {
	Payload json.RawMessage `json:"payload"`
}

// SaveResponse reports the outcome of a save.
type SaveResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Config  *delivery.Config `json:"config,omitempty"`
}

// SaveConfig replaces the shop's config with the submitted document.
// POST /api/blocked-dates
func (h *Handler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	shop, ok := tenancy.ShopFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "shop required")
		return
	}

	var req SaveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.metrics.ObserveSave("invalid")
		writeJSON(w, http.StatusBadRequest, SaveResponse{Message: "invalid JSON body"})
		return
	}
	raw, err := unwrapPayload(req.Payload)
	if err != nil {
		h.metrics.ObserveSave("invalid")
		writeJSON(w, http.StatusBadRequest, SaveResponse{Message: err.Error()})
		return
	}
	cfg, err := delivery.DecodeSubmitted(raw)
	if err != nil {
		h.metrics.ObserveSave("invalid")
		writeJSON(w, http.StatusBadRequest, SaveResponse{Message: err.Error()})
		return
	}

	saved, status, err := h.save(r.Context(), shop, cfg)
	if err != nil {
		writeJSON(w, status, SaveResponse{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, SaveResponse{Success: true, Config: &saved})
}

// save validates cfg and replaces the shop's record. The returned status is
// meaningful only when err is non-nil.
func (h *Handler) save(ctx context.Context, shop string, cfg delivery.Config) (delivery.Config, int, error) {
	ctx, span := tracer.Start(ctx, "admin.save_blocked_dates")
	defer span.End()
	span.SetAttributes(attribute.String("shopify.shop", shop))

	clean, err := delivery.Normalize(cfg)
	if err != nil {
		var verr *delivery.ValidationError
		if errors.As(err, &verr) {
			h.metrics.ObserveSave("invalid")
			return delivery.Config{}, http.StatusBadRequest, err
		}
		span.RecordError(err)
		return delivery.Config{}, http.StatusInternalServerError, err
	}
	span.SetAttributes(
		attribute.Int("blocked.weekdays", len(clean.BlockedWeekdays)),
		attribute.Int("blocked.dates", len(clean.BlockedDates)),
		attribute.Int("blocked.ranges", len(clean.BlockedRanges)),
	)

	start := time.Now()
	err = h.store.Save(ctx, shop, clean)
	h.metrics.ObserveStoreLatency("save", time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		h.metrics.ObserveSave("error")
		h.logger.Error("failed to save blocked dates", "shop", shop, "error", err)
		return delivery.Config{}, http.StatusInternalServerError, err
	}
	h.metrics.ObserveSave("success")

	if h.audit != nil {
		if err := h.audit.Record(ctx, shop, actor(ctx), clean); err != nil {
			h.logger.Warn("failed to record blocked dates audit", "shop", shop, "error", err)
		}
	}
	h.logger.Info("blocked dates saved", "shop", shop,
		"weekdays", len(clean.BlockedWeekdays), "dates", len(clean.BlockedDates), "ranges", len(clean.BlockedRanges))
	return clean, http.StatusOK, nil
}

// History lists recent saves, newest first.
// GET /api/blocked-dates/history?limit=20
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	shop, ok := tenancy.ShopFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "shop required")
		return
	}
	if h.audit == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []audit.Entry{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.audit.Recent(r.Context(), shop, limit)
	if err != nil {
		h.logger.Error("failed to list blocked dates history", "shop", shop, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

var errPayloadRequired = errors.New("payload required")

// unwrapPayload returns the document carried by payload. Blank and null
// documents are refused whether inline or stringified, so a save always
// names the record it writes.
func unwrapPayload(payload json.RawMessage) ([]byte, error) {
	trimmed := bytes.TrimSpace(payload)
	if isBlankDocument(trimmed) {
		return nil, errPayloadRequired
	}
	if trimmed[0] != '"' {
		return trimmed, nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, err
	}
	inner := bytes.TrimSpace([]byte(s))
	if isBlankDocument(inner) {
		return nil, errPayloadRequired
	}
	return inner, nil
}

func isBlankDocument(b []byte) bool {
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

func actor(ctx context.Context) string {
	if claims, ok := middleware.SessionClaimsFromContext(ctx); ok {
		return claims.Subject
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
