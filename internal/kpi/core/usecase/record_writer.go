package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/kpi/core/ports"
)

type RecordWriter struct {
	ingester ports.RecordIngesterPort
	table    string
	now      func() time.Time
}

func NewRecordWriter(ingester ports.RecordIngesterPort, table string) *RecordWriter {
	return &RecordWriter{ingester: ingester, table: table, now: time.Now}
}

// Write appends one KPI row to the store. Nothing is ever updated in place,
// so repeated writes for the same window produce duplicate rows.
func (w *RecordWriter) Write(ctx context.Context, window domain.TimeWindow, id domain.KpiID, value domain.Value) (domain.Record, error) {
	if value.Kind == 0 {
		value.Kind = id.Kind()
	}

	rec := domain.Record{
		CreatedAt: w.now().UTC(),
		Window:    window,
		KpiID:     id,
		Value:     value,
	}

	row, err := EncodeRecord(rec)
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: encode %s row: %v", domain.ErrPersistence, id, err)
	}

	if err := w.ingester.Ingest(ctx, w.table, bytes.NewReader(row)); err != nil {
		return domain.Record{}, fmt.Errorf("%w: ingest %s into %s: %v", domain.ErrPersistence, id, w.table, err)
	}
	return rec, nil
}

// EncodeRecord renders rec as a single CSV line.
func EncodeRecord(rec domain.Record) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(rec.RowFields()); err != nil {
		return nil, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
