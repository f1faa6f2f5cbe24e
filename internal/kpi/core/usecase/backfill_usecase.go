package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"perf-kpi-service/internal/kpi/core/domain"
)

const DefaultBackfillChunk = 3 * time.Hour

var ErrInvalidBackfillRange = errors.New("invalid backfill range")

type Collector interface {
	Execute(ctx context.Context, in CollectInput) (CollectResult, error)
}

type BackfillInput struct {
	Selector domain.Selector
	Start    time.Time
	End      time.Time
	Chunk    time.Duration
}

type BackfillChunk struct {
	Window domain.TimeWindow
	Result CollectResult
	Err    error
}

func (c BackfillChunk) OK() bool {
	return c.Err == nil && len(c.Result.FailedIDs()) == 0
}

type BackfillResult struct {
	Chunks []BackfillChunk
}

func (r BackfillResult) Failed() int {
	n := 0
	for _, c := range r.Chunks {
		if !c.OK() {
			n++
		}
	}
	return n
}

// BackfillUseCase recomputes a long range by walking it in fixed chunks and
// running a normal collection for each one.
type BackfillUseCase struct {
	collector Collector
}

func NewBackfillUseCase(collector Collector) *BackfillUseCase {
	return &BackfillUseCase{collector: collector}
}

func (uc *BackfillUseCase) Execute(ctx context.Context, in BackfillInput) (BackfillResult, error) {
	if !in.Start.Before(in.End) {
		return BackfillResult{}, fmt.Errorf("%w: start must be before end", ErrInvalidBackfillRange)
	}

	chunk := in.Chunk
	if chunk <= 0 {
		chunk = DefaultBackfillChunk
	}
	// hour KPIs only ever cover one hour from the chunk start, so every
	// chunk must be a whole hour or their records would run past End
	for _, id := range domain.AllKpiIDs() {
		if !id.HourGranularity() || !in.Selector.Includes(id) {
			continue
		}
		if in.End.Sub(in.Start)%time.Hour != 0 {
			return BackfillResult{}, fmt.Errorf("%w: %s needs a range of whole hours", ErrInvalidBackfillRange, id)
		}
		chunk = time.Hour
	}

	var res BackfillResult
	for cur := in.Start; cur.Before(in.End); {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		next := cur.Add(chunk)
		if next.After(in.End) {
			next = in.End
		}

		out, err := uc.collector.Execute(ctx, CollectInput{
			Selector: in.Selector,
			Trigger:  domain.TriggerBackfill,
			Start:    cur.Format(time.RFC3339),
			End:      next.Format(time.RFC3339),
		})
		res.Chunks = append(res.Chunks, BackfillChunk{
			Window: domain.TimeWindow{Start: cur, End: next},
			Result: out,
			Err:    err,
		})

		cur = next
	}
	return res, nil
}
