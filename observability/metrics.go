package observability

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	engineMetricsOnce sync.Once
	engineRegistry    *EngineMetrics
)

// ModuleMetrics returns the lazily-initialised module metrics registry used to
// record RPC module activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rewardvault",
				Subsystem: "module",
				Name:      "requests_total",
				Help:      "Total JSON-RPC module requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rewardvault",
				Subsystem: "module",
				Name:      "errors_total",
				Help:      "Total JSON-RPC module errors segmented by module, method, and status code.",
			}, []string{"module", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "rewardvault",
				Subsystem: "module",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC module handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rewardvault",
				Subsystem: "module",
				Name:      "throttles_total",
				Help:      "Count of module requests rejected due to throttling policies.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a module request. The status code should be
// the HTTP status that was ultimately written to the response writer.
func (m *moduleMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", status)).Inc()
	}
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied module and
// reason. Reasons should be stable strings such as "rate_limit" so dashboards
// and alerts remain consistent.
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(module, reason).Inc()
}

// EngineMetrics wraps collectors tracking accounting engine health.
type EngineMetrics struct {
	totalStaked  *prometheus.GaugeVec
	mintSkips    *prometheus.CounterVec
	capRemaining *prometheus.GaugeVec
	pauseEngaged *prometheus.GaugeVec
}

// Engines exposes the metrics registry for the accounting engines.
func Engines() *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			totalStaked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "rewardvault",
				Subsystem: "engine",
				Name:      "total_staked",
				Help:      "Total principal staked per pool in integer token units.",
			}, []string{"pool"}),
			mintSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rewardvault",
				Subsystem: "engine",
				Name:      "mint_skips_total",
				Help:      "Count of emission increments skipped because the mint cap refused them.",
			}, []string{"pool"}),
			capRemaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "rewardvault",
				Subsystem: "engine",
				Name:      "mint_cap_remaining",
				Help:      "Remaining lifetime mint headroom per token in integer units.",
			}, []string{"token"}),
			pauseEngaged: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "rewardvault",
				Subsystem: "engine",
				Name:      "pause_engaged",
				Help:      "Indicates whether a module pause guard is active (1) or not (0).",
			}, []string{"module"}),
		}
		prometheus.MustRegister(
			engineRegistry.totalStaked,
			engineRegistry.mintSkips,
			engineRegistry.capRemaining,
			engineRegistry.pauseEngaged,
		)
	})
	return engineRegistry
}

// RecordTotalStaked updates the staked-principal gauge for a pool.
func (m *EngineMetrics) RecordTotalStaked(pool string, total *big.Int) {
	if m == nil {
		return
	}
	m.totalStaked.WithLabelValues(labelPool(pool)).Set(bigToFloat(total))
}

// RecordMintSkip increments the skipped-mint counter for a pool.
func (m *EngineMetrics) RecordMintSkip(pool string) {
	if m == nil {
		return
	}
	m.mintSkips.WithLabelValues(labelPool(pool)).Inc()
}

// RecordCapRemaining updates the mint headroom gauge for a token.
func (m *EngineMetrics) RecordCapRemaining(token string, remaining *big.Int) {
	if m == nil {
		return
	}
	m.capRemaining.WithLabelValues(labelPool(token)).Set(bigToFloat(remaining))
}

// SetPause toggles the pause_engaged gauge for a module.
func (m *EngineMetrics) SetPause(module string, engaged bool) {
	if m == nil {
		return
	}
	value := 0.0
	if engaged {
		value = 1
	}
	m.pauseEngaged.WithLabelValues(labelPool(module)).Set(value)
}

func labelPool(pool string) string {
	trimmed := strings.TrimSpace(pool)
	if trimmed == "" {
		return "unknown"
	}
	return strings.ToLower(trimmed)
}

func bigToFloat(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	floatVal, acc := new(big.Float).SetInt(value).Float64()
	if acc != big.Exact {
		// Guard against NaN/Inf when conversion fails.
		if math.IsNaN(floatVal) || math.IsInf(floatVal, 0) {
			return 0
		}
	}
	return floatVal
}
