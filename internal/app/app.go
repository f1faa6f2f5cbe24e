// Package app wires configuration into the KPI and quarter use cases shared
// by the api and backfill commands.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"perf-kpi-service/internal/config"
	"perf-kpi-service/internal/kpi/adapters/appinsights"
	"perf-kpi-service/internal/kpi/adapters/memory"
	kpiRepoPg "perf-kpi-service/internal/kpi/adapters/postgres"
	"perf-kpi-service/internal/kpi/adapters/scheduler"
	"perf-kpi-service/internal/kpi/adapters/statuspage"
	"perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/kpi/core/ports"
	kpiUsecase "perf-kpi-service/internal/kpi/core/usecase"
	"perf-kpi-service/internal/platform/httpclient"
	"perf-kpi-service/internal/platform/observability"
	"perf-kpi-service/internal/quarter/adapters/kafka"
	quarterRepoPg "perf-kpi-service/internal/quarter/adapters/postgres"
	quarterPorts "perf-kpi-service/internal/quarter/core/ports"
	quarterUsecase "perf-kpi-service/internal/quarter/core/usecase"
)

type App struct {
	Config    config.Config
	Log       *slog.Logger
	Metrics   *observability.Metrics
	Collect   *kpiUsecase.CollectKpiUseCase
	Backfill  *kpiUsecase.BackfillUseCase
	Aggregate *quarterUsecase.AggregateQuarterUseCase
	Scheduler *scheduler.Scheduler

	// Memory is set when STORE_DRIVER=memory.
	Memory *memory.Store

	closers []func() error
}

// Sources are the ports a KPI run reads from and writes to.
type Sources struct {
	Counter      ports.EventCounterPort
	Latency      ports.LatencyQuerierPort
	Availability ports.AvailabilityReaderPort
	Ingester     ports.RecordIngesterPort
	Stats        quarterPorts.MonthlyStatsReaderPort
	Publisher    quarterPorts.SummaryPublisherPort
}

// Build opens the configured store and clients and assembles the use cases.
func Build(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, Metrics: observability.NewMetrics()}

	src, err := a.openStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	timeout := cfg.HTTPClient.Timeout
	src.Latency = appinsights.NewClient(appinsights.Config{
		URL:     cfg.Metrics.URL,
		APIKey:  cfg.Metrics.APIKey,
		Timeout: timeout,
	}, httpclient.New(cfg.ServiceName+"/metrics-api", timeout))
	src.Availability = statuspage.NewClient(statuspage.Config{
		URL:     cfg.Status.URL,
		APIKey:  cfg.Status.APIKey,
		Timeout: timeout,
	}, httpclient.New(cfg.ServiceName+"/status-api", timeout))

	pub, err := kafka.NewPublisher(kafka.Config{
		Brokers:         cfg.Kafka.Brokers,
		Topic:           cfg.Kafka.Topic,
		ClientID:        cfg.ServiceName,
		MaxMessageBytes: cfg.Kafka.MaxMessageBytes,
	}, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, pub.Close)
	src.Publisher = pub

	if err := a.Assemble(cfg, src); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// Assemble builds the use cases on top of already opened sources.
func (a *App) Assemble(cfg config.Config, src Sources) error {
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("%w: TIMEZONE: %v", domain.ErrConfigurationMissing, err)
	}

	registry, err := NewRegistry(cfg, src)
	if err != nil {
		return err
	}

	resolver := kpiUsecase.NewWindowResolver(cfg.WindowMode(), loc)
	writer := kpiUsecase.NewRecordWriter(src.Ingester, cfg.Store.KpiTable)

	a.Collect = kpiUsecase.NewCollectKpiUseCase(registry, resolver, writer, a.Metrics, a.Log)
	a.Backfill = kpiUsecase.NewBackfillUseCase(a.Collect)
	a.Aggregate = quarterUsecase.NewAggregateQuarterUseCase(
		quarterUsecase.NewQuarterResolver(loc), src.Stats, src.Publisher, a.Metrics, a.Log)

	jobs, err := scheduleJobs(cfg)
	if err != nil {
		return err
	}
	a.Scheduler = scheduler.New(scheduler.Config{
		Jobs:       jobs,
		MaxRetries: cfg.Schedule.MaxRetries,
		BaseDelay:  cfg.Schedule.RetryBaseDelay,
	}, a.Collect, a.Metrics, a.Log)
	return nil
}

// NewRegistry registers one strategy per KPI, in the order ALL runs them.
func NewRegistry(cfg config.Config, src Sources) (*kpiUsecase.Registry, error) {
	strategies := []kpiUsecase.Strategy{
		kpiUsecase.NewAvailabilityStrategy(src.Availability),
		kpiUsecase.NewRequestVolumeStrategy(src.Counter),
		kpiUsecase.NewErrorVolumeStrategy(src.Counter),
	}
	for _, id := range []domain.KpiID{domain.Perf03, domain.Perf04, domain.Perf05, domain.Perf06} {
		s, err := kpiUsecase.NewLatencyStrategy(id, cfg.Metrics.CloudRoleName, cfg.Operation(id), src.Latency)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	return kpiUsecase.NewRegistry(strategies...)
}

func scheduleJobs(cfg config.Config) ([]scheduler.Job, error) {
	if !cfg.Schedule.Enabled {
		return nil, nil
	}
	monthly, err := domain.ParseSelector(cfg.Schedule.MonthlyKpis)
	if err != nil {
		return nil, fmt.Errorf("SCHEDULE_MONTHLY_KPIS: %w", err)
	}
	hourly, err := domain.ParseSelector(cfg.Schedule.HourlyKpis)
	if err != nil {
		return nil, fmt.Errorf("SCHEDULE_HOURLY_KPIS: %w", err)
	}
	return []scheduler.Job{
		{Name: "monthly", Interval: cfg.Schedule.MonthlyInterval, Selector: monthly},
		{Name: "hourly", Interval: cfg.Schedule.HourlyInterval, Selector: hourly},
	}, nil
}

func (a *App) openStore(ctx context.Context) (Sources, error) {
	cfg := a.Config.Store

	if cfg.Driver == config.StoreDriverMemory {
		a.Memory = memory.New()
		a.Log.Warn("store_in_memory", slog.String("reason", "STORE_DRIVER=memory, data is not persisted"))
		return Sources{Counter: a.Memory, Ingester: a.Memory, Stats: a.Memory}, nil
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return Sources{}, fmt.Errorf("open postgres: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return Sources{}, fmt.Errorf("ping postgres: %w", err)
	}

	kpiDB := kpiRepoPg.NewSQLDB(db)
	if cfg.AutoMigrate {
		if err := kpiRepoPg.EnsureSchema(ctx, kpiDB, cfg.KpiTable); err != nil {
			return Sources{}, fmt.Errorf("ensure kpi schema: %w", err)
		}
		a.Log.Info("kpi_schema_ready", slog.String("table", cfg.KpiTable))
	}

	counter, err := kpiRepoPg.NewEventCounter(kpiDB, cfg.SourceTable)
	if err != nil {
		return Sources{}, err
	}
	stats, err := quarterRepoPg.NewStatsRepository(kpiDB, cfg.KpiTable)
	if err != nil {
		return Sources{}, err
	}

	return Sources{
		Counter:  counter,
		Ingester: kpiRepoPg.NewRecordRepository(kpiDB),
		Stats:    stats,
	}, nil
}

// Close releases everything Build opened, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
