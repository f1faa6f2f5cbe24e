package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/kpi/core/ports"
)

// Strategy computes the value of one KPI over a window against one source.
type Strategy interface {
	ID() domain.KpiID
	Retrieve(ctx context.Context, w domain.TimeWindow) (domain.Value, error)
}

const (
	requestSubType  = "REQ"
	responseSubType = "RESP"
	interfaceEvents = "INTERFACCIA"
	faultMarker     = "faultCode"
)

// errorVolumeExcludedTypes are event types whose responses carry faults as
// part of normal operation.
var errorVolumeExcludedTypes = []string{"cdInfoWisp", "mod3CancelV2", "mod3CancelV1", "parkedList-v1"}

// ------------------------------------------------------------
// Volume
// ------------------------------------------------------------

type VolumeCountStrategy struct {
	id      domain.KpiID
	filter  ports.CountFilter
	counter ports.EventCounterPort
}

// NewRequestVolumeStrategy counts inbound interface requests (PERF-02).
func NewRequestVolumeStrategy(counter ports.EventCounterPort) *VolumeCountStrategy {
	return &VolumeCountStrategy{
		id:      domain.Perf02,
		counter: counter,
		filter: ports.CountFilter{
			SubType:  requestSubType,
			Category: interfaceEvents,
		},
	}
}

// NewErrorVolumeStrategy counts interface responses carrying a fault
// (PERF-02E). The query decodes every payload, so it must only run over
// hour windows.
func NewErrorVolumeStrategy(counter ports.EventCounterPort) *VolumeCountStrategy {
	return &VolumeCountStrategy{
		id:      domain.Perf02E,
		counter: counter,
		filter: ports.CountFilter{
			SubType:            responseSubType,
			Category:           interfaceEvents,
			ExcludedEventTypes: errorVolumeExcludedTypes,
			PayloadMarker:      faultMarker,
		},
	}
}

func (s *VolumeCountStrategy) ID() domain.KpiID { return s.id }

func (s *VolumeCountStrategy) Retrieve(ctx context.Context, w domain.TimeWindow) (domain.Value, error) {
	f := s.filter
	f.Window = w
	f.ExcludedEventTypes = append([]string(nil), s.filter.ExcludedEventTypes...)

	n, err := s.counter.CountEvents(ctx, f)
	if err != nil {
		return domain.Value{}, fmt.Errorf("%s count query: %w", s.id, err)
	}
	return domain.CountValue(n), nil
}

// ------------------------------------------------------------
// Latency
// ------------------------------------------------------------

type LatencyStrategy struct {
	id        domain.KpiID
	roleName  string
	operation string
	querier   ports.LatencyQuerierPort
}

func NewLatencyStrategy(id domain.KpiID, roleName, operation string, querier ports.LatencyQuerierPort) (*LatencyStrategy, error) {
	if id.Kind() != domain.KindLatency {
		return nil, fmt.Errorf("%s is not a latency kpi", id)
	}
	return &LatencyStrategy{id: id, roleName: roleName, operation: operation, querier: querier}, nil
}

func (s *LatencyStrategy) ID() domain.KpiID { return s.id }

func (s *LatencyStrategy) Retrieve(ctx context.Context, w domain.TimeWindow) (domain.Value, error) {
	if s.operation == "" {
		return domain.Value{}, fmt.Errorf("%w: no operation name configured for %s", domain.ErrConfigurationMissing, s.id)
	}
	if s.roleName == "" {
		return domain.Value{}, fmt.Errorf("%w: cloud role name", domain.ErrConfigurationMissing)
	}

	avg, err := s.querier.AverageDuration(ctx, ports.LatencyQuery{
		Window:        w,
		RoleName:      s.roleName,
		OperationName: s.operation,
	})
	if err != nil {
		return domain.Value{}, fmt.Errorf("%s latency query: %w", s.id, err)
	}
	if math.IsNaN(avg) || math.IsInf(avg, 0) || avg < 0 {
		avg = 0
	}
	return domain.LatencyValue(avg), nil
}

// ------------------------------------------------------------
// Availability
// ------------------------------------------------------------

type AvailabilityStrategy struct {
	reader ports.AvailabilityReaderPort
}

func NewAvailabilityStrategy(reader ports.AvailabilityReaderPort) *AvailabilityStrategy {
	return &AvailabilityStrategy{reader: reader}
}

func (s *AvailabilityStrategy) ID() domain.KpiID { return domain.Perf01 }

func (s *AvailabilityStrategy) Retrieve(ctx context.Context, w domain.TimeWindow) (domain.Value, error) {
	from := day(w.Start)
	// the status API takes inclusive days; End is exclusive
	to := day(w.End.Add(-time.Second))
	if to.Before(from) {
		to = from
	}

	pct, err := s.reader.Availability(ctx, from, to)
	if err != nil {
		return domain.Value{}, fmt.Errorf("%s availability: %w", domain.Perf01, err)
	}
	return domain.AvailabilityValue(pct), nil
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ------------------------------------------------------------
// Registry
// ------------------------------------------------------------

var errDuplicateStrategy = errors.New("duplicate strategy")

// Registry maps each KPI to its strategy. It is built once at startup and
// keeps insertion order, which is the order KPIs run in.
type Registry struct {
	order []domain.KpiID
	byID  map[domain.KpiID]Strategy
}

func NewRegistry(strategies ...Strategy) (*Registry, error) {
	r := &Registry{byID: make(map[domain.KpiID]Strategy, len(strategies))}
	for _, s := range strategies {
		if _, ok := r.byID[s.ID()]; ok {
			return nil, fmt.Errorf("%w for %s", errDuplicateStrategy, s.ID())
		}
		r.byID[s.ID()] = s
		r.order = append(r.order, s.ID())
	}
	return r, nil
}

func (r *Registry) IDs() []domain.KpiID {
	out := make([]domain.KpiID, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Lookup(id domain.KpiID) (Strategy, bool) {
	s, ok := r.byID[id]
	return s, ok
}
