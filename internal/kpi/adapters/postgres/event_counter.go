package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"perf-kpi-service/internal/kpi/core/ports"
)

// EventCounter counts rows of the platform's source events table.
type EventCounter struct {
	db    DB
	table string
}

func NewEventCounter(db DB, table string) (*EventCounter, error) {
	if err := ValidTableName(table); err != nil {
		return nil, err
	}
	return &EventCounter{db: db, table: table}, nil
}

var _ ports.EventCounterPort = (*EventCounter)(nil)

func (c *EventCounter) CountEvents(ctx context.Context, f ports.CountFilter) (int64, error) {
	where := "inserted_timestamp >= $1 AND inserted_timestamp < $2"
	args := []any{f.Window.Start.UTC(), f.Window.End.UTC()}
	argIndex := 3

	if f.SubType != "" {
		where += fmt.Sprintf(" AND event_sub_type = $%d", argIndex)
		args = append(args, f.SubType)
		argIndex++
	}

	if f.Category != "" {
		where += fmt.Sprintf(" AND event_category = $%d", argIndex)
		args = append(args, f.Category)
		argIndex++
	}

	if len(f.ExcludedEventTypes) > 0 {
		where += fmt.Sprintf(" AND NOT (event_type = ANY($%d))", argIndex)
		args = append(args, pq.Array(f.ExcludedEventTypes))
		argIndex++
	}

	if f.PayloadMarker != "" {
		where += " AND payload IS NOT NULL AND payload <> ''"
		where += fmt.Sprintf(" AND position($%d in convert_from(decode(payload, 'base64'), 'UTF8')) > 0", argIndex)
		args = append(args, f.PayloadMarker)
	}

	query := `
SELECT
    COUNT(*) AS count
FROM ` + pq.QuoteIdentifier(c.table) + `
WHERE ` + where

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}

	if err := rows.Err(); err != nil {
		return 0, err
	}

	return count, nil
}
