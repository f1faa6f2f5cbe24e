package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	kpidomain "perf-kpi-service/internal/kpi/core/domain"
)

type Quarter string

const (
	Q1   Quarter = "Q1"
	Q2   Quarter = "Q2"
	Q3   Quarter = "Q3"
	Q4   Quarter = "Q4"
	Last Quarter = "LAST"
)

func ParseQuarter(raw string) (Quarter, error) {
	switch q := Quarter(strings.ToUpper(strings.TrimSpace(raw))); q {
	case Q1, Q2, Q3, Q4, Last:
		return q, nil
	default:
		return "", fmt.Errorf("%w: quarter must be one of Q1, Q2, Q3, Q4 or LAST, got %q",
			kpidomain.ErrInvalidQuarterInput, raw)
	}
}

// FirstMonth returns the first calendar month of a fixed quarter.
func (q Quarter) FirstMonth() (time.Month, bool) {
	switch q {
	case Q1:
		return time.January, true
	case Q2:
		return time.April, true
	case Q3:
		return time.July, true
	case Q4:
		return time.October, true
	default:
		return 0, false
	}
}

// MonthAggregate holds one rolled-up value per KPI for a calendar month.
type MonthAggregate struct {
	Month  kpidomain.TimeWindow
	Values map[kpidomain.KpiID]float64
}

type QuarterlySummary struct {
	Year      int
	Quarter   Quarter
	CreatedAt time.Time
	Months    [3]MonthAggregate // oldest first
}

const CreateDateLayout = "2006-01-02T15:04:05"

// PayloadRecord is one month of the downstream quarterly message.
type PayloadRecord struct {
	CreateDate string `json:"create_date"`
	Year       string `json:"year"`
	Quarter    string `json:"quarter"`
	Perf01     string `json:"PERF-01"`
	Perf02     string `json:"PERF-02"`
	Perf02E    string `json:"PERF-02E"`
	Perf03     string `json:"PERF-03"`
	Perf04     string `json:"PERF-04"`
	Perf05     string `json:"PERF-05"`
	Perf06     string `json:"PERF-06"`
}

func (s QuarterlySummary) Records() []PayloadRecord {
	out := make([]PayloadRecord, 0, len(s.Months))
	for _, m := range s.Months {
		v := func(id kpidomain.KpiID) string { return FormatKpiValue(id, m.Values[id]) }
		out = append(out, PayloadRecord{
			CreateDate: s.CreatedAt.Format(CreateDateLayout),
			Year:       strconv.Itoa(s.Year),
			Quarter:    string(s.Quarter),
			Perf01:     v(kpidomain.Perf01),
			Perf02:     v(kpidomain.Perf02),
			Perf02E:    v(kpidomain.Perf02E),
			Perf03:     v(kpidomain.Perf03),
			Perf04:     v(kpidomain.Perf04),
			Perf05:     v(kpidomain.Perf05),
			Perf06:     v(kpidomain.Perf06),
		})
	}
	return out
}

func (s QuarterlySummary) MarshalPayload() ([]byte, error) {
	return json.Marshal(s.Records())
}

// FormatKpiValue renders an aggregated value: counts as integers,
// availability with two decimals, latency with one.
func FormatKpiValue(id kpidomain.KpiID, v float64) string {
	switch id.Kind() {
	case kpidomain.KindCount:
		return strconv.FormatFloat(v, 'f', 0, 64)
	case kpidomain.KindAvailability:
		return strconv.FormatFloat(v, 'f', 2, 64)
	default:
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
}

// Key identifies the summary on the event stream, e.g. "2024-Q4".
func (s QuarterlySummary) Key() string {
	return fmt.Sprintf("%d-%s", s.Year, s.Quarter)
}
