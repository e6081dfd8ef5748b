package metrics

import "github.com/prometheus/client_golang/prometheus"

// DeliveryMetrics exposes counters/histograms for blocked-date flows.
type DeliveryMetrics struct {
	savesTotal      *prometheus.CounterVec
	readFallbacks   *prometheus.CounterVec
	selectionsTotal *prometheus.CounterVec
	shopifyLatency  *prometheus.HistogramVec
}

func NewDeliveryMetrics(reg prometheus.Registerer) *DeliveryMetrics {
	m := &DeliveryMetrics{
		savesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "delivery",
			Subsystem: "blocked_dates",
			Name:      "saves_total",
			Help:      "Merchant config saves by outcome",
		}, []string{"status"}),
		readFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "delivery",
			Subsystem: "blocked_dates",
			Name:      "read_fallbacks_total",
			Help:      "Reads that degraded to the empty config",
		}, []string{"surface"}),
		selectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "delivery",
			Subsystem: "checkout",
			Name:      "selections_total",
			Help:      "Buyer delivery date selections by outcome",
		}, []string{"status"}),
		shopifyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "delivery",
			Subsystem: "shopify",
			Name:      "store_latency_seconds",
			Help:      "Latency of config store operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.savesTotal, m.readFallbacks, m.selectionsTotal, m.shopifyLatency)
	return m
}

func (m *DeliveryMetrics) ObserveSave(status string) {
	if m == nil {
		return
	}
	m.savesTotal.WithLabelValues(status).Inc()
}

// ObserveFallback counts a read on surface ("admin" or "checkout") that served
// the empty config because the store failed.
func (m *DeliveryMetrics) ObserveFallback(surface string) {
	if m == nil {
		return
	}
	m.readFallbacks.WithLabelValues(surface).Inc()
}

func (m *DeliveryMetrics) ObserveSelection(status string) {
	if m == nil {
		return
	}
	m.selectionsTotal.WithLabelValues(status).Inc()
}

func (m *DeliveryMetrics) ObserveStoreLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.shopifyLatency.WithLabelValues(operation).Observe(seconds)
}
