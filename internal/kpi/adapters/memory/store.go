// Package memory keeps KPI records and source events in process memory.
// Data is lost on restart; it backs STORE_DRIVER=memory and tests.
package memory

import (
	"context"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/kpi/core/ports"
	quarterports "perf-kpi-service/internal/quarter/core/ports"
)

// SourceEvent is one row of the platform's source events table.
type SourceEvent struct {
	InsertedAt time.Time
	SubType    string
	Category   string
	EventType  string
	Payload    string // base64
}

type Store struct {
	mu      sync.RWMutex
	records map[string][]domain.Record // by table
	events  []SourceEvent
}

func New() *Store {
	return &Store{records: make(map[string][]domain.Record)}
}

var (
	_ ports.RecordIngesterPort            = (*Store)(nil)
	_ ports.EventCounterPort              = (*Store)(nil)
	_ quarterports.MonthlyStatsReaderPort = (*Store)(nil)
)

// AddEvents seeds source events.
func (s *Store) AddEvents(events ...SourceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

func (s *Store) Ingest(ctx context.Context, table string, rows io.Reader) error {
	cr := csv.NewReader(rows)
	cr.FieldsPerRecord = len(domain.RecordColumns)

	var parsed []domain.Record
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read kpi row: %w", err)
		}
		rec, err := domain.ParseRowFields(fields)
		if err != nil {
			return fmt.Errorf("parse kpi row: %w", err)
		}
		parsed = append(parsed, rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[table] = append(s.records[table], parsed...)
	return nil
}

// Records returns a copy of everything ingested into table.
func (s *Store) Records(table string) []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Record, len(s.records[table]))
	copy(out, s.records[table])
	return out
}

func (s *Store) CountEvents(ctx context.Context, f ports.CountFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	excluded := make(map[string]bool, len(f.ExcludedEventTypes))
	for _, t := range f.ExcludedEventTypes {
		excluded[t] = true
	}

	var n int64
	for _, e := range s.events {
		if e.InsertedAt.Before(f.Window.Start) || !e.InsertedAt.Before(f.Window.End) {
			continue
		}
		if f.SubType != "" && e.SubType != f.SubType {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if excluded[e.EventType] {
			continue
		}
		if f.PayloadMarker != "" && !payloadContains(e.Payload, f.PayloadMarker) {
			continue
		}
		n++
	}
	return n, nil
}

func payloadContains(payload, marker string) bool {
	if payload == "" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return false
	}
	return strings.Contains(string(decoded), marker)
}

type windowKey struct {
	id         domain.KpiID
	start, end int64
}

// MonthlyStats aggregates every table's records, matching the single KPI
// table a deployment uses. The newest record of each (kpi, window) pair
// replaces earlier ones.
func (s *Store) MonthlyStats(ctx context.Context, month domain.TimeWindow) (map[domain.KpiID]quarterports.KpiStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[windowKey]domain.Record)
	for _, recs := range s.records {
		for _, r := range recs {
			if !r.Window.Within(month) {
				continue
			}
			k := windowKey{id: r.KpiID, start: r.Window.Start.UnixNano(), end: r.Window.End.UnixNano()}
			if prev, ok := latest[k]; ok && prev.CreatedAt.After(r.CreatedAt) {
				continue
			}
			latest[k] = r
		}
	}

	out := make(map[domain.KpiID]quarterports.KpiStats)
	for _, r := range latest {
		st := out[r.KpiID]
		st.Samples++
		st.Sum += r.Value.Number
		out[r.KpiID] = st
	}

	for id, st := range out {
		st.Avg = st.Sum / float64(st.Samples)
		out[id] = st
	}
	return out, nil
}
