package ports

import (
	"context"

	kpidomain "perf-kpi-service/internal/kpi/core/domain"
)

// KpiStats summarizes the stored records of one KPI inside a month.
type KpiStats struct {
	Samples int64
	Sum     float64
	Avg     float64
}

type MonthlyStatsReaderPort interface {
	// MonthlyStats aggregates records whose window lies entirely inside month.
	// Only the newest record of each (kpi, window) pair counts. KPIs without
	// records are absent from the map.
	MonthlyStats(ctx context.Context, month kpidomain.TimeWindow) (map[kpidomain.KpiID]KpiStats, error)
}

type SummaryPublisherPort interface {
	Publish(ctx context.Context, key string, payload []byte) error
}
