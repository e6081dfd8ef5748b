package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/blocked-delivery-dates/internal/delivery"
	"github.com/wolfman30/blocked-delivery-dates/internal/observability/metrics"
	"github.com/wolfman30/blocked-delivery-dates/internal/tenancy"
	"github.com/wolfman30/blocked-delivery-dates/pkg/logging"
)

// FallbackHeader marks a payload served without the stored config.
const FallbackHeader = "X-Blocked-Dates-Fallback"

var tracer = otel.Tracer("delivery.internal.checkout")

// SelectionWriter records a buyer's chosen date on an order.
type SelectionWriter interface {
	WriteSelectedDate(ctx context.Context, shop, orderID, day string) error
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	Store   delivery.Store
	Writer  SelectionWriter
	Metrics *metrics.DeliveryMetrics
	Logger  *logging.Logger
	// EnforceSelectionCheck rejects selections that fall on a blocked date.
	// The picker already prevents them, so this is off by default.
	EnforceSelectionCheck bool
}

// Handler serves the checkout extension.
type Handler struct {
	store   delivery.Store
	writer  SelectionWriter
	metrics *metrics.DeliveryMetrics
	logger  *logging.Logger
	enforce bool
}

// NewHandler creates a checkout handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:   cfg.Store,
		writer:  cfg.Writer,
		metrics: cfg.Metrics,
		logger:  logger,
		enforce: cfg.EnforceSelectionCheck,
	}
}

// Routes returns the checkout routes. The caller must authenticate the shop.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/blocked-dates", h.BlockedDates)
	r.Get("/blocked-dates/check", h.CheckDate)
	r.Post("/selected-date", h.SelectDate)
	return r
}

// disabledSet never fails: an unreadable config means nothing is blocked.
func (h *Handler) disabledSet(ctx context.Context, shop string) (delivery.DisabledSet, bool) {
	cfg, err := h.store.Load(ctx, shop)
	if err != nil {
		h.logger.Warn("blocked dates unavailable at checkout, allowing all dates", "shop", shop, "error", err)
		h.metrics.ObserveFallback("checkout")
		return delivery.Resolve(delivery.DefaultConfig()), true
	}
	return delivery.Resolve(cfg), false
}

// BlockedDates returns the picker payload for the shop.
// GET /checkout/blocked-dates
func (h *Handler) BlockedDates(w http.ResponseWriter, r *http.Request) {
	shop, ok := tenancy.ShopFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "shop required")
		return
	}
	set, fallback := h.disabledSet(r.Context(), shop)
	if fallback {
		w.Header().Set(FallbackHeader, "true")
	}
	w.Header().Set("Cache-Control", "private, max-age=60")
	writeJSON(w, http.StatusOK, NewPickerPayload(set))
}

// CheckDate reports whether one date is blocked.
// GET /checkout/blocked-dates/check?date=YYYY-MM-DD
func (h *Handler) CheckDate(w http.ResponseWriter, r *http.Request) {
	shop, ok := tenancy.ShopFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "shop required")
		return
	}
	day, err := delivery.NormalizeDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	set, fallback := h.disabledSet(r.Context(), shop)
	if fallback {
		w.Header().Set(FallbackHeader, "true")
	}
	disabled, err := set.DisablesDate(day)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": day, "disabled": disabled})
}

// SelectionRequest is the buyer's choice for a placed order.
type SelectionRequest struct {
	OrderID string `json:"orderId"`
	Date    string `json:"date"`
}

// SelectionResponse reports whether the choice was recorded.
type SelectionResponse struct {
	Success bool   `json:"success"`
	Date    string `json:"date,omitempty"`
	Message string `json:"message,omitempty"`
}

// SelectDate writes the chosen date to the order's delivery.selected_date
// metafield. The write is attempted once.
// POST /checkout/selected-date
func (h *Handler) SelectDate(w http.ResponseWriter, r *http.Request) {
	shop, ok := tenancy.ShopFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "shop required")
		return
	}

	ctx, span := tracer.Start(r.Context(), "checkout.select_delivery_date")
	defer span.End()
	span.SetAttributes(attribute.String("shopify.shop", shop))

	var req SelectionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		h.metrics.ObserveSelection("invalid")
		writeJSON(w, http.StatusBadRequest, SelectionResponse{Message: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.OrderID) == "" {
		h.metrics.ObserveSelection("invalid")
		writeJSON(w, http.StatusBadRequest, SelectionResponse{Message: "orderId required"})
		return
	}
	day, err := delivery.NormalizeDate(req.Date)
	if err != nil {
		h.metrics.ObserveSelection("invalid")
		writeJSON(w, http.StatusBadRequest, SelectionResponse{Message: err.Error()})
		return
	}
	span.SetAttributes(attribute.String("delivery.date", day))

	if h.enforce {
		set, _ := h.disabledSet(ctx, shop)
		if blocked, _ := set.DisablesDate(day); blocked {
			h.metrics.ObserveSelection("blocked")
			writeJSON(w, http.StatusUnprocessableEntity, SelectionResponse{Date: day, Message: "delivery is not available on " + day})
			return
		}
	}

	if err := h.writer.WriteSelectedDate(ctx, shop, req.OrderID, day); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "selection write failed")
		h.metrics.ObserveSelection("error")
		h.logger.Error("failed to record delivery date", "shop", shop, "order", req.OrderID, "error", err)
		writeJSON(w, http.StatusInternalServerError, SelectionResponse{Date: day, Message: err.Error()})
		return
	}
	h.metrics.ObserveSelection("recorded")
	writeJSON(w, http.StatusOK, SelectionResponse{Success: true, Date: day})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
