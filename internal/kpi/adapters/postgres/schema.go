package postgres

import (
	"context"

	"github.com/lib/pq"
)

// EnsureSchema creates the KPI table if it does not exist. Rows are append
// only and carry no natural key.
func EnsureSchema(ctx context.Context, db DB, table string) error {
	if err := ValidTableName(table); err != nil {
		return err
	}

	name := pq.QuoteIdentifier(table)
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+name+` (
    created_at   TIMESTAMP NOT NULL,
    window_start TIMESTAMP NOT NULL,
    window_end   TIMESTAMP NOT NULL,
    kpi_id       TEXT      NOT NULL,
    kpi_value    NUMERIC   NOT NULL
)`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS `+pq.QuoteIdentifier(table+"_window_idx")+
		` ON `+name+` (window_start, window_end)`)
	return err
}
