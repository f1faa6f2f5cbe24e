package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	kpidomain "perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/quarter/core/domain"
	"perf-kpi-service/internal/quarter/core/ports"
)

// defaultAvailability is reported for months without availability records:
// the platform is assumed fully available absent contrary evidence.
const defaultAvailability = 100.0

type AggregateObserver interface {
	ObserveAggregate(quarter string, err error, elapsed time.Duration)
}

type AggregateInput struct {
	Quarter string
	Year    int
	Now     time.Time
}

type AggregateQuarterUseCase struct {
	resolver  *QuarterResolver
	stats     ports.MonthlyStatsReaderPort
	publisher ports.SummaryPublisherPort
	observer  AggregateObserver
	log       *slog.Logger
	now       func() time.Time
}

func NewAggregateQuarterUseCase(resolver *QuarterResolver, stats ports.MonthlyStatsReaderPort, publisher ports.SummaryPublisherPort, observer AggregateObserver, log *slog.Logger) *AggregateQuarterUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &AggregateQuarterUseCase{
		resolver:  resolver,
		stats:     stats,
		publisher: publisher,
		observer:  observer,
		log:       log.With(slog.String("component", "quarter_aggregator")),
		now:       time.Now,
	}
}

// Execute rolls up the three months of a quarter and publishes them as one
// payload. Any failure aborts the run and nothing is published.
func (uc *AggregateQuarterUseCase) Execute(ctx context.Context, in AggregateInput) (summary *domain.QuarterlySummary, err error) {
	started := time.Now()
	defer func() {
		if uc.observer != nil {
			uc.observer.ObserveAggregate(in.Quarter, err, time.Since(started))
		}
	}()

	now := in.Now
	if now.IsZero() {
		now = uc.now()
	}

	q, months, err := uc.resolver.Resolve(in.Quarter, in.Year, now)
	if err != nil {
		return nil, err
	}

	year := in.Year
	if q == domain.Last {
		year = months[2].Start.Year()
	}

	s := &domain.QuarterlySummary{
		Year:      year,
		Quarter:   q,
		CreatedAt: now,
	}

	for i, month := range months {
		stats, err := uc.stats.MonthlyStats(ctx, month)
		if err != nil {
			return nil, fmt.Errorf("%w: monthly stats for %s: %v", kpidomain.ErrPersistence, month, err)
		}
		s.Months[i] = aggregateMonth(month, stats)
	}

	payload, err := s.MarshalPayload()
	if err != nil {
		return nil, fmt.Errorf("%w: encode quarterly payload: %v", kpidomain.ErrPublish, err)
	}

	if err := uc.publisher.Publish(ctx, s.Key(), payload); err != nil {
		return nil, err
	}

	uc.log.Info("quarter_published",
		slog.String("quarter", string(s.Quarter)),
		slog.Int("year", s.Year),
		slog.Int("payload_bytes", len(payload)),
	)
	return s, nil
}

func aggregateMonth(month kpidomain.TimeWindow, stats map[kpidomain.KpiID]ports.KpiStats) domain.MonthAggregate {
	agg := domain.MonthAggregate{
		Month:  month,
		Values: make(map[kpidomain.KpiID]float64, len(kpidomain.AllKpiIDs())),
	}

	for _, id := range kpidomain.AllKpiIDs() {
		st, ok := stats[id]
		if !ok || st.Samples == 0 {
			if id.Kind() == kpidomain.KindAvailability {
				agg.Values[id] = defaultAvailability
			} else {
				agg.Values[id] = 0
			}
			continue
		}

		switch id.Kind() {
		case kpidomain.KindCount:
			agg.Values[id] = round(st.Sum, 1)
		case kpidomain.KindAvailability:
			agg.Values[id] = round(st.Avg, 2)
		default:
			agg.Values[id] = round(st.Avg, 1)
		}
	}
	return agg
}

func round(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
