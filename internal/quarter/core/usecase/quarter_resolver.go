package usecase

import (
	"fmt"
	"time"

	kpidomain "perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/quarter/core/domain"
)

type QuarterResolver struct {
	loc *time.Location
}

func NewQuarterResolver(loc *time.Location) *QuarterResolver {
	if loc == nil {
		loc = time.UTC
	}
	return &QuarterResolver{loc: loc}
}

// Resolve maps a quarter selector to its three month windows, oldest first.
// LAST means the three months before the month of now; year is ignored.
func (r *QuarterResolver) Resolve(selector string, year int, now time.Time) (domain.Quarter, [3]kpidomain.TimeWindow, error) {
	var months [3]kpidomain.TimeWindow

	q, err := domain.ParseQuarter(selector)
	if err != nil {
		return "", months, err
	}

	var first time.Time
	if q == domain.Last {
		now = now.In(r.loc)
		first = time.Date(now.Year(), now.Month()-3, 1, 0, 0, 0, 0, r.loc)
	} else {
		if year < 1 || year > 9999 {
			return "", months, fmt.Errorf("%w: year %d out of range", kpidomain.ErrInvalidQuarterInput, year)
		}
		m, _ := q.FirstMonth()
		first = time.Date(year, m, 1, 0, 0, 0, 0, r.loc)
	}

	for i := range months {
		start := first.AddDate(0, i, 0)
		months[i] = kpidomain.MonthWindow(start.Year(), start.Month(), r.loc)
	}
	return q, months, nil
}
