package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"perf-kpi-service/internal/kpi/core/domain"
)

type KpiRecordWriter interface {
	Write(ctx context.Context, window domain.TimeWindow, id domain.KpiID, value domain.Value) (domain.Record, error)
}

// CollectObserver is notified once per attempted KPI.
type CollectObserver interface {
	ObserveCollect(id domain.KpiID, trigger domain.Trigger, err error, elapsed time.Duration)
}

type CollectInput struct {
	Selector domain.Selector
	Trigger  domain.Trigger
	Start    string // optional, see InputTimeLayouts
	End      string // optional
	Now      time.Time
}

type KpiOutcome struct {
	ID     domain.KpiID
	Window domain.TimeWindow
	Value  domain.Value
	Err    error
}

func (o KpiOutcome) OK() bool { return o.Err == nil }

type CollectResult struct {
	RunID    string
	Outcomes []KpiOutcome
}

func (r CollectResult) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

func (r CollectResult) FailedIDs() []domain.KpiID {
	var ids []domain.KpiID
	for _, o := range r.Outcomes {
		if !o.OK() {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// Outcome returns the entry for id, if the run attempted it.
func (r CollectResult) Outcome(id domain.KpiID) (KpiOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.ID == id {
			return o, true
		}
	}
	return KpiOutcome{}, false
}

type CollectKpiUseCase struct {
	registry *Registry
	resolver *WindowResolver
	writer   KpiRecordWriter
	observer CollectObserver
	log      *slog.Logger
	now      func() time.Time
}

func NewCollectKpiUseCase(registry *Registry, resolver *WindowResolver, writer KpiRecordWriter, observer CollectObserver, log *slog.Logger) *CollectKpiUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &CollectKpiUseCase{
		registry: registry,
		resolver: resolver,
		writer:   writer,
		observer: observer,
		log:      log.With(slog.String("component", "kpi_collector")),
		now:      time.Now,
	}
}

// Execute computes and stores every selected KPI, one after the other.
// Window and selector errors abort the run before anything is fetched; any
// other failure is recorded against its KPI and the run moves on.
func (uc *CollectKpiUseCase) Execute(ctx context.Context, in CollectInput) (CollectResult, error) {
	ids, err := uc.selectKpis(in.Selector)
	if err != nil {
		return CollectResult{}, err
	}

	now := in.Now
	if now.IsZero() {
		now = uc.now()
	}

	windows := make([]domain.TimeWindow, len(ids))
	for i, id := range ids {
		w, err := uc.resolver.Resolve(ResolveInput{
			Trigger: in.Trigger,
			KpiID:   id,
			Start:   in.Start,
			End:     in.End,
			Now:     now,
		})
		if err != nil {
			return CollectResult{}, err
		}
		windows[i] = w
	}

	res := CollectResult{
		RunID:    uuid.NewString(),
		Outcomes: make([]KpiOutcome, 0, len(ids)),
	}
	log := uc.log.With(slog.String("run_id", res.RunID), slog.String("trigger", string(in.Trigger)))

	for i, id := range ids {
		res.Outcomes = append(res.Outcomes, uc.collectOne(ctx, log, in.Trigger, id, windows[i]))
	}

	log.Info("kpi_collect_completed",
		slog.String("selector", in.Selector.String()),
		slog.Int("succeeded", res.Succeeded()),
		slog.Int("failed", len(res.FailedIDs())),
	)
	return res, nil
}

func (uc *CollectKpiUseCase) collectOne(ctx context.Context, log *slog.Logger, trigger domain.Trigger, id domain.KpiID, w domain.TimeWindow) KpiOutcome {
	started := time.Now()
	out := KpiOutcome{ID: id, Window: w}

	strategy, _ := uc.registry.Lookup(id)
	value, err := strategy.Retrieve(ctx, w)
	if err == nil {
		_, err = uc.writer.Write(ctx, w, id, value)
	}

	if uc.observer != nil {
		uc.observer.ObserveCollect(id, trigger, err, time.Since(started))
	}

	attrs := []any{
		slog.String("kpi_id", string(id)),
		slog.Time("window_start", w.Start),
		slog.Time("window_end", w.End),
	}
	if err != nil {
		log.Error("kpi_collect_failed", append(attrs, slog.Any("err", err))...)
		out.Err = err
		return out
	}

	log.Info("kpi_collected", append(attrs, slog.String("value", value.Text()))...)
	out.Value = value
	return out
}

func (uc *CollectKpiUseCase) selectKpis(sel domain.Selector) ([]domain.KpiID, error) {
	if sel.All() {
		return uc.registry.IDs(), nil
	}
	ids := sel.IDs()
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: empty selection", domain.ErrInvalidSelector)
	}
	for _, id := range ids {
		if _, ok := uc.registry.Lookup(id); !ok {
			return nil, fmt.Errorf("%w: no strategy registered for %s", domain.ErrInvalidSelector, id)
		}
	}
	return ids, nil
}
