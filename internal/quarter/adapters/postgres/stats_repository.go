package postgres

import (
	"context"

	"github.com/lib/pq"

	kpipg "perf-kpi-service/internal/kpi/adapters/postgres"
	kpidomain "perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/quarter/core/ports"
)

// Querier is the read side of the KPI database.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (kpipg.RowScanner, error)
}

type StatsRepository struct {
	db    Querier
	table string
}

func NewStatsRepository(db Querier, table string) (*StatsRepository, error) {
	if err := kpipg.ValidTableName(table); err != nil {
		return nil, err
	}
	return &StatsRepository{db: db, table: table}, nil
}

var _ ports.MonthlyStatsReaderPort = (*StatsRepository)(nil)

func (r *StatsRepository) MonthlyStats(ctx context.Context, month kpidomain.TimeWindow) (map[kpidomain.KpiID]ports.KpiStats, error) {
	// a window recomputed by a later run replaces the earlier rows for it
	query := `
SELECT
    kpi_id,
    COUNT(*) AS samples,
    COALESCE(SUM(kpi_value), 0)::double precision AS total,
    COALESCE(AVG(kpi_value), 0)::double precision AS average
FROM (
    SELECT DISTINCT ON (kpi_id, window_start, window_end)
        kpi_id,
        kpi_value
    FROM ` + pq.QuoteIdentifier(r.table) + `
    WHERE window_start >= $1 AND window_end <= $2
    ORDER BY kpi_id, window_start, window_end, created_at DESC
) latest
GROUP BY kpi_id
ORDER BY kpi_id`

	rows, err := r.db.QueryContext(ctx, query, month.Start.UTC(), month.End.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[kpidomain.KpiID]ports.KpiStats)
	for rows.Next() {
		var id string
		var st ports.KpiStats

		if err := rows.Scan(&id, &st.Samples, &st.Sum, &st.Avg); err != nil {
			return nil, err
		}

		kpi, err := kpidomain.ParseKpiID(id)
		if err != nil {
			// rows written by other tools are not ours to aggregate
			continue
		}
		out[kpi] = st
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
