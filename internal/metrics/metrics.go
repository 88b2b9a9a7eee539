package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the Prometheus collectors for the bot.
// All methods are safe on a nil receiver so callers may run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	SignalsTotal   *prometheus.CounterVec // labels: direction
	RiskySignals   prometheus.Counter
	AnalysesFailed prometheus.Counter
	FetchDuration  prometheus.Histogram
	FetchErrors    prometheus.Counter
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CommandsTotal  *prometheus.CounterVec // labels: command
	QuotaRejected  prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_signals_total",
			Help: "Signals delivered, by direction",
		}, []string{"direction"}),
		RiskySignals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_risky_signals_total",
			Help: "Signals delivered with a risk warning",
		}),
		AnalysesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_analyses_failed_total",
			Help: "Analyses that ended in an error reply",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_fetch_duration_seconds",
			Help:    "Candle fetch latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_fetch_errors_total",
			Help: "Candle fetches that failed after retries",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_candle_cache_hits_total",
			Help: "Candle requests served from Redis",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_candle_cache_misses_total",
			Help: "Candle requests that went upstream",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_commands_total",
			Help: "Bot commands received, by command",
		}, []string{"command"}),
		QuotaRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_quota_rejected_total",
			Help: "Signal requests refused by the free daily limit",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SignalsTotal,
		m.RiskySignals,
		m.AnalysesFailed,
		m.FetchDuration,
		m.FetchErrors,
		m.CacheHits,
		m.CacheMisses,
		m.CommandsTotal,
		m.QuotaRejected,
	)
	return m
}

// Registry exposes the underlying registry for the HTTP handler and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveFetch(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
	if err != nil {
		m.FetchErrors.Inc()
	}
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) SignalSent(direction string, risky bool) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(direction).Inc()
	if risky {
		m.RiskySignals.Inc()
	}
}

func (m *Metrics) AnalysisFailed() {
	if m != nil {
		m.AnalysesFailed.Inc()
	}
}

func (m *Metrics) Command(name string) {
	if m != nil {
		m.CommandsTotal.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) QuotaHit() {
	if m != nil {
		m.QuotaRejected.Inc()
	}
}
