package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RecordTimeLayout is the timestamp format of persisted rows. Rows are always
// written in UTC.
const RecordTimeLayout = "2006-01-02 15:04:05"

// RecordColumns is the column order of the KPI table.
var RecordColumns = []string{"created_at", "window_start", "window_end", "kpi_id", "kpi_value"}

// RowFields renders r as the five CSV fields of a KPI table row.
func (r Record) RowFields() []string {
	return []string{
		r.CreatedAt.UTC().Format(RecordTimeLayout),
		r.Window.Start.UTC().Format(RecordTimeLayout),
		r.Window.End.UTC().Format(RecordTimeLayout),
		string(r.KpiID),
		r.Value.Text(),
	}
}

// ParseRowFields is the inverse of RowFields.
func ParseRowFields(fields []string) (Record, error) {
	if len(fields) != len(RecordColumns) {
		return Record{}, fmt.Errorf("record row has %d fields, want %d", len(fields), len(RecordColumns))
	}

	var ts [3]time.Time
	for i := 0; i < 3; i++ {
		t, err := time.ParseInLocation(RecordTimeLayout, strings.TrimSpace(fields[i]), time.UTC)
		if err != nil {
			return Record{}, fmt.Errorf("column %s: %w", RecordColumns[i], err)
		}
		ts[i] = t
	}

	id, err := ParseKpiID(fields[3])
	if err != nil {
		return Record{}, err
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if err != nil {
		return Record{}, fmt.Errorf("column kpi_value: %w", err)
	}

	return Record{
		CreatedAt: ts[0],
		Window:    TimeWindow{Start: ts[1], End: ts[2]},
		KpiID:     id,
		Value:     Value{Kind: id.Kind(), Number: n},
	}, nil
}
