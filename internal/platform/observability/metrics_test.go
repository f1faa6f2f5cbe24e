package observability

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"perf-kpi-service/internal/kpi/core/domain"
)

func TestMetrics_ObserveCollect(t *testing.T) {
	m := NewMetrics()

	m.ObserveCollect(domain.Perf02, domain.TriggerHTTP, nil, time.Millisecond)
	m.ObserveCollect(domain.Perf01, domain.TriggerHTTP, &domain.UpstreamError{Source: "status-api", StatusCode: 502}, time.Millisecond)

	require.Equal(t, 1.0, testutil.ToFloat64(m.collectTotal.WithLabelValues("PERF-02", "http", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.collectTotal.WithLabelValues("PERF-01", "http", "upstream_error")))
}

func TestMetrics_ObserveAggregate(t *testing.T) {
	m := NewMetrics()

	m.ObserveAggregate("Q4", fmt.Errorf("%w: broker down", domain.ErrPublish), time.Second)
	require.Equal(t, 1.0, testutil.ToFloat64(m.aggregateTotal.WithLabelValues("Q4", "publish_error")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveCollect(domain.Perf02, domain.TriggerScheduled, nil, time.Second)
		m.ObserveAggregate("LAST", nil, time.Second)
		m.ScheduleRetry("monthly")
	})
	require.NotNil(t, m.Handler())
}
