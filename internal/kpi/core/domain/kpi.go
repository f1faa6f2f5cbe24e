package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// KpiID identifies one of the tracked performance KPIs.
type KpiID string

const (
	Perf01  KpiID = "PERF-01" // availability
	Perf02  KpiID = "PERF-02" // request volume
	Perf02E KpiID = "PERF-02E"
	Perf03  KpiID = "PERF-03"
	Perf04  KpiID = "PERF-04"
	Perf05  KpiID = "PERF-05"
	Perf06  KpiID = "PERF-06"
)

var allKpiIDs = []KpiID{Perf01, Perf02, Perf02E, Perf03, Perf04, Perf05, Perf06}

// AllKpiIDs returns every known KPI in collection order.
func AllKpiIDs() []KpiID {
	out := make([]KpiID, len(allKpiIDs))
	copy(out, allKpiIDs)
	return out
}

// ParseKpiID accepts a KPI code case-insensitively.
func ParseKpiID(raw string) (KpiID, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	for _, id := range allKpiIDs {
		if string(id) == s {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: unknown kpi %q", ErrInvalidSelector, raw)
}

func (id KpiID) String() string { return string(id) }

// Kind reports how values of this KPI are measured.
func (id KpiID) Kind() Kind {
	switch id {
	case Perf01:
		return KindAvailability
	case Perf02, Perf02E:
		return KindCount
	default:
		return KindLatency
	}
}

// HourGranularity is true for KPIs whose source query is too expensive for
// anything wider than a single hour.
func (id KpiID) HourGranularity() bool {
	return id == Perf02E
}

// Kind is the semantic type of a KPI value.
type Kind int

const (
	KindCount Kind = iota + 1
	KindLatency
	KindAvailability
)

func (k Kind) String() string {
	switch k {
	case KindCount:
		return "count"
	case KindLatency:
		return "latency_ms"
	case KindAvailability:
		return "availability_pct"
	default:
		return "unknown"
	}
}

// Value is a KPI measurement tagged with its kind.
type Value struct {
	Kind   Kind
	Number float64
}

func CountValue(n int64) Value {
	if n < 0 {
		n = 0
	}
	return Value{Kind: KindCount, Number: float64(n)}
}

func LatencyValue(ms float64) Value {
	return Value{Kind: KindLatency, Number: ms}
}

func AvailabilityValue(pct float64) Value {
	return Value{Kind: KindAvailability, Number: pct}
}

// Text renders the value the way it is persisted: counts as integers,
// everything else as plain decimals.
func (v Value) Text() string {
	if v.Kind == KindCount {
		return strconv.FormatInt(int64(math.Round(v.Number)), 10)
	}
	return strconv.FormatFloat(v.Number, 'f', -1, 64)
}

// Trigger names what started a collection run.
type Trigger string

const (
	TriggerHTTP      Trigger = "http"
	TriggerScheduled Trigger = "scheduled"
	TriggerBackfill  Trigger = "backfill"
)

// TimeWindow is the half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if !start.Before(end) {
		return TimeWindow{}, fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidWindowInput, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return TimeWindow{Start: start, End: end}, nil
}

// MonthWindow returns the full calendar month containing year/month in loc.
func MonthWindow(year int, month time.Month, loc *time.Location) TimeWindow {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return TimeWindow{Start: start, End: start.AddDate(0, 1, 0)}
}

func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Within reports whether w lies entirely inside outer.
func (w TimeWindow) Within(outer TimeWindow) bool {
	return !w.Start.Before(outer.Start) && !w.End.After(outer.End)
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// Record is one persisted KPI measurement.
type Record struct {
	CreatedAt time.Time
	Window    TimeWindow
	KpiID     KpiID
	Value     Value
}
