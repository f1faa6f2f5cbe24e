package usecase

import (
	"fmt"
	"strings"
	"time"

	"perf-kpi-service/internal/kpi/core/domain"
)

// WindowMode selects the default window used when a caller gives no bounds.
// The same mode applies to every trigger kind.
type WindowMode string

const (
	WindowPreviousMonth WindowMode = "previous_month"
	WindowCurrentMonth  WindowMode = "current_month"
)

func ParseWindowMode(s string) (WindowMode, error) {
	switch WindowMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", WindowPreviousMonth:
		return WindowPreviousMonth, nil
	case WindowCurrentMonth:
		return WindowCurrentMonth, nil
	default:
		return "", fmt.Errorf("unknown window mode %q", s)
	}
}

// InputTimeLayouts are the accepted formats for caller supplied bounds.
var InputTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

type ResolveInput struct {
	Trigger domain.Trigger
	KpiID   domain.KpiID
	Start   string // optional
	End     string // optional
	Now     time.Time
}

type WindowResolver struct {
	mode WindowMode
	loc  *time.Location
	now  func() time.Time
}

func NewWindowResolver(mode WindowMode, loc *time.Location) *WindowResolver {
	if loc == nil {
		loc = time.UTC
	}
	if mode == "" {
		mode = WindowPreviousMonth
	}
	return &WindowResolver{mode: mode, loc: loc, now: time.Now}
}

func (r *WindowResolver) Mode() WindowMode { return r.mode }

// Resolve computes the window to evaluate for one KPI.
func (r *WindowResolver) Resolve(in ResolveInput) (domain.TimeWindow, error) {
	now := in.Now
	if now.IsZero() {
		now = r.now()
	}
	now = now.In(r.loc)

	start, hasStart, err := r.parseBound("startDate", in.Start)
	if err != nil {
		return domain.TimeWindow{}, err
	}
	end, hasEnd, err := r.parseBound("endDate", in.End)
	if err != nil {
		return domain.TimeWindow{}, err
	}

	// Hour KPIs always get exactly one hour, whatever end the caller sent.
	if in.KpiID.HourGranularity() {
		if !hasStart {
			floor := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, r.loc)
			return domain.NewTimeWindow(floor.Add(-time.Hour), floor)
		}
		return domain.NewTimeWindow(start, start.Add(time.Hour))
	}

	if hasStart && hasEnd {
		return domain.NewTimeWindow(start, end)
	}

	return r.defaultWindow(now), nil
}

func (r *WindowResolver) defaultWindow(now time.Time) domain.TimeWindow {
	if r.mode == WindowCurrentMonth {
		return domain.MonthWindow(now.Year(), now.Month(), r.loc)
	}
	prev := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, r.loc)
	return domain.MonthWindow(prev.Year(), prev.Month(), r.loc)
}

func (r *WindowResolver) parseBound(name, raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range InputTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, r.loc); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: %s %q does not match format %s",
		domain.ErrInvalidWindowInput, name, raw, InputTimeLayouts[0])
}
