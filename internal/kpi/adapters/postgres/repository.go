package postgres

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"

	"perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/kpi/core/ports"
)

type RowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (RowScanner, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	CopyRows(ctx context.Context, table string, columns []string, rows [][]any) error
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

var ErrInvalidTableName = errors.New("invalid table name")

// ValidTableName rejects anything that is not a plain SQL identifier. Table
// names cannot be bound parameters, so they are checked before use.
func ValidTableName(name string) error {
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	return nil
}

type RecordRepository struct {
	db DB
}

func NewRecordRepository(db DB) *RecordRepository {
	return &RecordRepository{db: db}
}

var _ ports.RecordIngesterPort = (*RecordRepository)(nil)

// Ingest reads CSV KPI rows from r and bulk-loads them into table.
func (r *RecordRepository) Ingest(ctx context.Context, table string, rows io.Reader) error {
	if err := ValidTableName(table); err != nil {
		return err
	}

	cr := csv.NewReader(rows)
	cr.FieldsPerRecord = len(domain.RecordColumns)

	var batch [][]any
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

		batch = append(batch, []any{
			rec.CreatedAt,
			rec.Window.Start,
			rec.Window.End,
			string(rec.KpiID),
			fields[4],
		})
	}

	if len(batch) == 0 {
		return nil
	}
	return r.db.CopyRows(ctx, table, domain.RecordColumns, batch)
}
