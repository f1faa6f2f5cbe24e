package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/kpi/core/usecase"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 30 * time.Second
)

// Job runs a collection for Selector every Interval.
type Job struct {
	Name       string
	Interval   time.Duration
	Selector   domain.Selector
	RunOnStart bool
}

// RetryRecorder counts retries per job.
type RetryRecorder interface {
	ScheduleRetry(job string)
}

type Config struct {
	Jobs       []Job
	MaxRetries int
	BaseDelay  time.Duration
}

type Scheduler struct {
	collector  usecase.Collector
	jobs       []Job
	maxRetries int
	baseDelay  time.Duration
	retries    RetryRecorder
	log        *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, collector usecase.Collector, retries RetryRecorder, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	return &Scheduler{
		collector:  collector,
		jobs:       cfg.Jobs,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		retries:    retries,
		log:        log.With(slog.String("component", "kpi_scheduler")),
		sleep:      sleepCtx,
	}
}

// Run ticks every job until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			s.log.Warn("schedule_job_skipped", slog.String("job", job.Name), slog.String("reason", "no interval"))
			continue
		}
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.loop(ctx, job)
		}(job)
	}

	s.log.Info("scheduler_started", slog.Int("jobs", len(s.jobs)))
	<-ctx.Done()
	wg.Wait()
	s.log.Info("scheduler_stopped")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	if job.RunOnStart {
		s.RunJob(ctx, job, time.Now())
	}

	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			s.RunJob(ctx, job, tick)
		}
	}
}

// RunJob collects the job's KPIs as of tick, then retries the failed ones
// with exponential backoff. Every attempt reuses tick so retries land in
// the same window.
func (s *Scheduler) RunJob(ctx context.Context, job Job, tick time.Time) usecase.CollectResult {
	log := s.log.With(slog.String("job", job.Name), slog.Time("tick", tick))
	sel := job.Selector

	var final usecase.CollectResult
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.baseDelay * time.Duration(1<<(attempt-1))
			log.Info("schedule_retry",
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
				slog.String("selector", sel.String()),
			)
			if s.retries != nil {
				s.retries.ScheduleRetry(job.Name)
			}
			if err := s.sleep(ctx, delay); err != nil {
				return final
			}
		}

		res, err := s.collector.Execute(ctx, usecase.CollectInput{
			Selector: sel,
			Trigger:  domain.TriggerScheduled,
			Now:      tick,
		})
		if err != nil {
			// input errors will not improve on retry
			log.Error("schedule_run_failed", slog.Any("err", err))
			return final
		}
		final = merge(final, res)

		failed := res.FailedIDs()
		if len(failed) == 0 {
			return final
		}
		if onlyConfigErrors(res) {
			log.Error("schedule_run_not_retryable", slog.Int("failed", len(failed)))
			return final
		}
		sel = domain.NewSelector(failed...)
	}

	log.Error("schedule_retries_exhausted", slog.Int("failed", len(final.FailedIDs())))
	return final
}

// merge replaces earlier outcomes with retried ones, keeping the first
// run's order and id.
func merge(prev, next usecase.CollectResult) usecase.CollectResult {
	if prev.RunID == "" {
		return next
	}
	for i, o := range prev.Outcomes {
		if retried, ok := next.Outcome(o.ID); ok {
			prev.Outcomes[i] = retried
		}
	}
	return prev
}

func onlyConfigErrors(res usecase.CollectResult) bool {
	for _, o := range res.Outcomes {
		if o.Err != nil && !errors.Is(o.Err, domain.ErrConfigurationMissing) {
			return false
		}
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
