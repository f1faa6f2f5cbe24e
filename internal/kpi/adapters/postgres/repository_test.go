package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"

	"perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/kpi/core/ports"
)

// fakeResult implements sql.Result for tests.
type fakeResult struct {
	rowsAffected int64
}

func (f *fakeResult) LastInsertId() (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeResult) RowsAffected() (int64, error) {
	return f.rowsAffected, nil
}

// fakeRows serves a fixed result set.
type fakeRows struct {
	data   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = row[i].(int64)
		case *float64:
			*p = row[i].(float64)
		case *string:
			*p = row[i].(string)
		default:
			return errors.New("unsupported scan type")
		}
	}
	return nil
}

func (r *fakeRows) Err() error   { return r.err }
func (r *fakeRows) Close() error { r.closed = true; return nil }

// fakeDB implements DB interface for tests.
type fakeDB struct {
	QueryFn   func(ctx context.Context, query string, args ...any) (RowScanner, error)
	ExecFn    func(ctx context.Context, query string, args ...any) (sql.Result, error)
	CopyFn    func(ctx context.Context, table string, columns []string, rows [][]any) error
	lastQuery string
	lastArgs  []any
	execs     []string
	copied    [][]any
}

func (f *fakeDB) QueryContext(ctx context.Context, query string, args ...any) (RowScanner, error) {
	f.lastQuery = query
	f.lastArgs = args
	if f.QueryFn != nil {
		return f.QueryFn(ctx, query, args...)
	}
	return &fakeRows{}, nil
}

func (f *fakeDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.execs = append(f.execs, query)
	if f.ExecFn != nil {
		return f.ExecFn(ctx, query, args...)
	}
	return &fakeResult{}, nil
}

func (f *fakeDB) CopyRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	f.copied = append(f.copied, rows...)
	if f.CopyFn != nil {
		return f.CopyFn(ctx, table, columns, rows)
	}
	return nil
}

var dec2024 = domain.TimeWindow{
	Start: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
}

// ------------------------------------------------------------
// TABLE NAMES
// ------------------------------------------------------------

func TestValidTableName(t *testing.T) {
	for _, ok := range []string{"kpi_records", "events", "_t1"} {
		if err := ValidTableName(ok); err != nil {
			t.Fatalf("%q: unexpected error: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "1abc", "kpi;drop table x", "public.kpi", strings.Repeat("a", 64)} {
		if err := ValidTableName(bad); !errors.Is(err, ErrInvalidTableName) {
			t.Fatalf("%q: expected ErrInvalidTableName, got %v", bad, err)
		}
	}
}

// ------------------------------------------------------------
// EVENT COUNTER
// ------------------------------------------------------------

func TestEventCounter_RequestFilter(t *testing.T) {
	db := &fakeDB{QueryFn: func(ctx context.Context, query string, args ...any) (RowScanner, error) {
		return &fakeRows{data: [][]any{{int64(42)}}}, nil
	}}
	c, err := NewEventCounter(db, "events")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := c.CountEvents(context.Background(), ports.CountFilter{Window: dec2024, SubType: "REQ", Category: "INTERFACCIA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Fatalf("expected 42, got %d", n)
	}
	if !strings.Contains(db.lastQuery, `FROM "events"`) {
		t.Fatalf("expected quoted table, got %s", db.lastQuery)
	}
	if strings.Contains(db.lastQuery, "ANY(") || strings.Contains(db.lastQuery, "decode(") {
		t.Fatalf("request count must not filter payloads: %s", db.lastQuery)
	}
	if len(db.lastArgs) != 4 || db.lastArgs[2] != "REQ" || db.lastArgs[3] != "INTERFACCIA" {
		t.Fatalf("unexpected args %v", db.lastArgs)
	}
}

func TestEventCounter_ErrorFilter(t *testing.T) {
	db := &fakeDB{QueryFn: func(ctx context.Context, query string, args ...any) (RowScanner, error) {
		return &fakeRows{data: [][]any{{int64(3)}}}, nil
	}}
	c, _ := NewEventCounter(db, "events")

	_, err := c.CountEvents(context.Background(), ports.CountFilter{
		Window:             dec2024,
		SubType:            "RESP",
		Category:           "INTERFACCIA",
		ExcludedEventTypes: []string{"cdInfoWisp", "mod3CancelV2"},
		PayloadMarker:      "faultCode",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(db.lastQuery, "NOT (event_type = ANY($5))") {
		t.Fatalf("expected exclusion clause, got %s", db.lastQuery)
	}
	if !strings.Contains(db.lastQuery, "position($6 in convert_from(decode(payload, 'base64'), 'UTF8'))") {
		t.Fatalf("expected payload clause, got %s", db.lastQuery)
	}
	if _, ok := db.lastArgs[4].(*pq.StringArray); !ok {
		t.Fatalf("expected pq.StringArray, got %T", db.lastArgs[4])
	}
	if db.lastArgs[5] != "faultCode" {
		t.Fatalf("unexpected marker arg %v", db.lastArgs[5])
	}
	if got := db.lastArgs[0].(time.Time); !got.Equal(dec2024.Start) || got.Location() != time.UTC {
		t.Fatalf("expected UTC window start, got %v", got)
	}
}

func TestEventCounter_QueryError(t *testing.T) {
	db := &fakeDB{QueryFn: func(ctx context.Context, query string, args ...any) (RowScanner, error) {
		return nil, errors.New("db error")
	}}
	c, _ := NewEventCounter(db, "events")

	if _, err := c.CountEvents(context.Background(), ports.CountFilter{Window: dec2024}); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestEventCounter_RejectsBadTable(t *testing.T) {
	if _, err := NewEventCounter(&fakeDB{}, "events; --"); !errors.Is(err, ErrInvalidTableName) {
		t.Fatalf("expected ErrInvalidTableName, got %v", err)
	}
}

// ------------------------------------------------------------
// RECORD INGEST
// ------------------------------------------------------------

func TestRecordRepository_Ingest(t *testing.T) {
	db := &fakeDB{}
	repo := NewRecordRepository(db)

	rows := "2025-01-02 03:04:05,2024-12-01 00:00:00,2025-01-01 00:00:00,PERF-02,42\n" +
		"2025-01-02 03:04:05,2024-12-01 00:00:00,2025-01-01 00:00:00,PERF-03,120.5\n"
	if err := repo.Ingest(context.Background(), "kpi_records", strings.NewReader(rows)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(db.copied) != 2 {
		t.Fatalf("expected 2 copied rows, got %d", len(db.copied))
	}
	if db.copied[1][3] != "PERF-03" || db.copied[1][4] != "120.5" {
		t.Fatalf("unexpected row %v", db.copied[1])
	}
}

func TestRecordRepository_IngestRejectsMalformedRow(t *testing.T) {
	db := &fakeDB{}
	repo := NewRecordRepository(db)

	err := repo.Ingest(context.Background(), "kpi_records", strings.NewReader("2025-01-02,PERF-02,42\n"))
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if len(db.copied) != 0 {
		t.Fatalf("nothing may be copied from a malformed batch")
	}
}

func TestRecordRepository_IngestCopyError(t *testing.T) {
	db := &fakeDB{CopyFn: func(ctx context.Context, table string, columns []string, rows [][]any) error {
		return errors.New("copy failed")
	}}
	repo := NewRecordRepository(db)

	rows := "2025-01-02 03:04:05,2024-12-01 00:00:00,2025-01-01 00:00:00,PERF-02,42\n"
	if err := repo.Ingest(context.Background(), "kpi_records", strings.NewReader(rows)); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

// ------------------------------------------------------------
// SCHEMA
// ------------------------------------------------------------

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	if err := EnsureSchema(context.Background(), db, "kpi_records"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(db.execs) != 2 {
		t.Fatalf("expected table and index statements, got %d", len(db.execs))
	}
	if !strings.Contains(db.execs[0], `CREATE TABLE IF NOT EXISTS "kpi_records"`) {
		t.Fatalf("unexpected ddl %s", db.execs[0])
	}
}

func TestEnsureSchema_ExecError(t *testing.T) {
	db := &fakeDB{ExecFn: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
		return nil, errors.New("permission denied")
	}}
	if err := EnsureSchema(context.Background(), db, "kpi_records"); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if len(db.execs) != 1 {
		t.Fatalf("index must not be created after a failed table statement")
	}
}
