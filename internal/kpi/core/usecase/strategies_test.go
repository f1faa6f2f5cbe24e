package usecase_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/kpi/core/ports"
	"perf-kpi-service/internal/kpi/core/usecase"
)

type fakeCounter struct {
	CountFn    func(ctx context.Context, f ports.CountFilter) (int64, error)
	lastFilter ports.CountFilter
}

func (f *fakeCounter) CountEvents(ctx context.Context, filter ports.CountFilter) (int64, error) {
	f.lastFilter = filter
	return f.CountFn(ctx, filter)
}

type fakeLatency struct {
	AverageFn func(ctx context.Context, q ports.LatencyQuery) (float64, error)
	lastQuery ports.LatencyQuery
	called    bool
}

func (f *fakeLatency) AverageDuration(ctx context.Context, q ports.LatencyQuery) (float64, error) {
	f.called = true
	f.lastQuery = q
	return f.AverageFn(ctx, q)
}

type fakeAvailability struct {
	AvailabilityFn func(ctx context.Context, from, to time.Time) (float64, error)
	from, to       time.Time
}

func (f *fakeAvailability) Availability(ctx context.Context, from, to time.Time) (float64, error) {
	f.from, f.to = from, to
	return f.AvailabilityFn(ctx, from, to)
}

var dec2024 = domain.TimeWindow{
	Start: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
}

// ------------------------------------------------------------
// VOLUME
// ------------------------------------------------------------

func TestRequestVolume_Filter(t *testing.T) {
	c := &fakeCounter{CountFn: func(ctx context.Context, f ports.CountFilter) (int64, error) { return 42, nil }}
	s := usecase.NewRequestVolumeStrategy(c)

	v, err := s.Retrieve(context.Background(), dec2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != domain.KindCount || v.Number != 42 {
		t.Fatalf("unexpected value %+v", v)
	}
	if c.lastFilter.SubType != "REQ" || c.lastFilter.Category != "INTERFACCIA" {
		t.Fatalf("unexpected filter %+v", c.lastFilter)
	}
	if c.lastFilter.PayloadMarker != "" || len(c.lastFilter.ExcludedEventTypes) != 0 {
		t.Fatalf("request volume must not filter payloads: %+v", c.lastFilter)
	}
	if c.lastFilter.Window != dec2024 {
		t.Fatalf("unexpected window %s", c.lastFilter.Window)
	}
}

func TestErrorVolume_Filter(t *testing.T) {
	c := &fakeCounter{CountFn: func(ctx context.Context, f ports.CountFilter) (int64, error) { return 3, nil }}
	s := usecase.NewErrorVolumeStrategy(c)
	if s.ID() != domain.Perf02E {
		t.Fatalf("expected PERF-02E, got %s", s.ID())
	}

	if _, err := s.Retrieve(context.Background(), dec2024); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := c.lastFilter
	if f.SubType != "RESP" || f.PayloadMarker != "faultCode" {
		t.Fatalf("unexpected filter %+v", f)
	}
	if len(f.ExcludedEventTypes) != 4 {
		t.Fatalf("expected 4 excluded event types, got %v", f.ExcludedEventTypes)
	}
}

func TestVolume_SourceError(t *testing.T) {
	c := &fakeCounter{CountFn: func(ctx context.Context, f ports.CountFilter) (int64, error) {
		return 0, errors.New("connection refused")
	}}
	if _, err := usecase.NewRequestVolumeStrategy(c).Retrieve(context.Background(), dec2024); err == nil {
		t.Fatalf("expected error")
	}
}

// ------------------------------------------------------------
// LATENCY
// ------------------------------------------------------------

func TestLatency_NaNBecomesZero(t *testing.T) {
	q := &fakeLatency{AverageFn: func(ctx context.Context, q ports.LatencyQuery) (float64, error) { return math.NaN(), nil }}
	s, err := usecase.NewLatencyStrategy(domain.Perf05, "gateway", "POST /bulk", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := s.Retrieve(context.Background(), dec2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Number != 0 || v.Kind != domain.KindLatency {
		t.Fatalf("expected 0 latency, got %+v", v)
	}
	if q.lastQuery.OperationName != "POST /bulk" || q.lastQuery.RoleName != "gateway" {
		t.Fatalf("unexpected query %+v", q.lastQuery)
	}
}

func TestLatency_MissingOperationIsConfigError(t *testing.T) {
	q := &fakeLatency{AverageFn: func(ctx context.Context, q ports.LatencyQuery) (float64, error) { return 1, nil }}
	s, err := usecase.NewLatencyStrategy(domain.Perf06, "gateway", "", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = s.Retrieve(context.Background(), dec2024)
	if !errors.Is(err, domain.ErrConfigurationMissing) {
		t.Fatalf("expected ErrConfigurationMissing, got %v", err)
	}
	if q.called {
		t.Fatalf("the metrics API must not be queried without an operation name")
	}
}

func TestLatency_RejectsNonLatencyID(t *testing.T) {
	if _, err := usecase.NewLatencyStrategy(domain.Perf02, "gateway", "op", &fakeLatency{}); err == nil {
		t.Fatalf("expected error for a count kpi")
	}
}

// ------------------------------------------------------------
// AVAILABILITY
// ------------------------------------------------------------

func TestAvailability_InclusiveDays(t *testing.T) {
	a := &fakeAvailability{AvailabilityFn: func(ctx context.Context, from, to time.Time) (float64, error) { return 99.95, nil }}
	s := usecase.NewAvailabilityStrategy(a)

	v, err := s.Retrieve(context.Background(), dec2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Number != 99.95 || v.Kind != domain.KindAvailability {
		t.Fatalf("unexpected value %+v", v)
	}
	if !a.from.Equal(dec2024.Start) {
		t.Fatalf("unexpected from %s", a.from)
	}
	if !a.to.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected last day 2024-12-31, got %s", a.to)
	}
}

func TestAvailability_UpstreamErrorIsKept(t *testing.T) {
	a := &fakeAvailability{AvailabilityFn: func(ctx context.Context, from, to time.Time) (float64, error) {
		return 0, &domain.UpstreamError{Source: "status-api", StatusCode: 502}
	}}

	_, err := usecase.NewAvailabilityStrategy(a).Retrieve(context.Background(), dec2024)
	var upErr *domain.UpstreamError
	if !errors.As(err, &upErr) || upErr.StatusCode != 502 {
		t.Fatalf("expected UpstreamError 502, got %v", err)
	}
}

// ------------------------------------------------------------
// REGISTRY
// ------------------------------------------------------------

func TestRegistry_RejectsDuplicates(t *testing.T) {
	c := &fakeCounter{}
	_, err := usecase.NewRegistry(usecase.NewRequestVolumeStrategy(c), usecase.NewRequestVolumeStrategy(c))
	if err == nil {
		t.Fatalf("expected duplicate strategy error")
	}
}

func TestRegistry_KeepsInsertionOrder(t *testing.T) {
	c := &fakeCounter{}
	r, err := usecase.NewRegistry(usecase.NewErrorVolumeStrategy(c), usecase.NewRequestVolumeStrategy(c))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := r.IDs()
	if len(ids) != 2 || ids[0] != domain.Perf02E || ids[1] != domain.Perf02 {
		t.Fatalf("unexpected order %v", ids)
	}
	if _, ok := r.Lookup(domain.Perf01); ok {
		t.Fatalf("PERF-01 is not registered")
	}
}
