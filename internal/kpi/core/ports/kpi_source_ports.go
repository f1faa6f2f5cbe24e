package ports

import (
	"context"
	"io"
	"time"

	"perf-kpi-service/internal/kpi/core/domain"
)

// CountFilter describes a count over the source events table.
type CountFilter struct {
	Window             domain.TimeWindow
	SubType            string
	Category           string
	ExcludedEventTypes []string
	PayloadMarker      string // optional; matched against the base64-decoded payload
}

type EventCounterPort interface {
	CountEvents(ctx context.Context, f CountFilter) (int64, error)
}

type LatencyQuery struct {
	Window        domain.TimeWindow
	RoleName      string
	OperationName string
}

type LatencyQuerierPort interface {
	// AverageDuration returns the average request duration in milliseconds.
	// It may return NaN when the source has no numeric average.
	AverageDuration(ctx context.Context, q LatencyQuery) (float64, error)
}

type AvailabilityReaderPort interface {
	// Availability returns the uptime percentage reported for the days
	// from..to, both inclusive.
	Availability(ctx context.Context, from, to time.Time) (float64, error)
}

type RecordIngesterPort interface {
	// Ingest streams comma separated KPI rows into table.
	Ingest(ctx context.Context, table string, rows io.Reader) error
}
