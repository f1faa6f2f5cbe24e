package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"perf-kpi-service/internal/kpi/core/domain"
)

// Metrics implements the collect and aggregate observers. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	collectTotal     *prometheus.CounterVec
	collectDuration  *prometheus.HistogramVec
	aggregateTotal   *prometheus.CounterVec
	aggregateSeconds prometheus.Histogram
	scheduleRetries  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		collectTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kpi_collect_total",
			Help: "KPI collections by kpi, trigger and outcome.",
		}, []string{"kpi_id", "trigger", "outcome"}),
		collectDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kpi_collect_duration_seconds",
			Help:    "Time to retrieve and store one KPI.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kpi_id"}),
		aggregateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kpi_quarter_aggregate_total",
			Help: "Quarterly aggregations by quarter selector and outcome.",
		}, []string{"quarter", "outcome"}),
		aggregateSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kpi_quarter_aggregate_duration_seconds",
			Help:    "Time to aggregate and publish a quarter.",
			Buckets: prometheus.DefBuckets,
		}),
		scheduleRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kpi_schedule_retries_total",
			Help: "Scheduled collection retries by job.",
		}, []string{"job"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.collectTotal,
		m.collectDuration,
		m.aggregateTotal,
		m.aggregateSeconds,
		m.scheduleRetries,
	)
	return m
}

func (m *Metrics) ObserveCollect(id domain.KpiID, trigger domain.Trigger, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.collectTotal.WithLabelValues(string(id), string(trigger), outcome(err)).Inc()
	m.collectDuration.WithLabelValues(string(id)).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveAggregate(quarter string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.aggregateTotal.WithLabelValues(quarter, outcome(err)).Inc()
	m.aggregateSeconds.Observe(elapsed.Seconds())
}

func (m *Metrics) ScheduleRetry(job string) {
	if m == nil {
		return
	}
	m.scheduleRetries.WithLabelValues(job).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// outcome buckets errors into a small, fixed label set.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "upstream_error"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence_error"
	case errors.Is(err, domain.ErrPublish):
		return "publish_error"
	case errors.Is(err, domain.ErrConfigurationMissing):
		return "config_error"
	case errors.Is(err, domain.ErrInvalidWindowInput),
		errors.Is(err, domain.ErrInvalidQuarterInput),
		errors.Is(err, domain.ErrInvalidSelector):
		return "invalid_input"
	default:
		return "error"
	}
}
