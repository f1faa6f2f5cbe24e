package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/kpi/core/usecase"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	LogLevel    string `yaml:"log_level"`
	HTTPAddr    string `yaml:"http_addr"`

	Store      StoreConfig      `yaml:"store"`
	Metrics    MetricsAPIConfig `yaml:"metrics_api"`
	Status     StatusAPIConfig  `yaml:"status_api"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Window     WindowConfig     `yaml:"window"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	HTTPClient HTTPClientConfig `yaml:"http_client"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	SourceTable string `yaml:"source_table"`
	KpiTable    string `yaml:"kpi_table"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type MetricsAPIConfig struct {
	URL           string `yaml:"url"`
	APIKey        string `yaml:"api_key"`
	CloudRoleName string `yaml:"cloud_role_name"`
	// Operations maps latency KPI ids to the operation name they track.
	Operations map[string]string `yaml:"operations"`
}

type StatusAPIConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type KafkaConfig struct {
	Brokers         []string `yaml:"brokers"`
	Topic           string   `yaml:"topic"`
	MaxMessageBytes int      `yaml:"max_message_bytes"`
}

type WindowConfig struct {
	DefaultMode string `yaml:"default_mode"`
	Timezone    string `yaml:"timezone"`
}

type ScheduleConfig struct {
	Enabled         bool          `yaml:"enabled"`
	MonthlyInterval time.Duration `yaml:"monthly_interval"`
	MonthlyKpis     string        `yaml:"monthly_kpis"`
	HourlyInterval  time.Duration `yaml:"hourly_interval"`
	HourlyKpis      string        `yaml:"hourly_kpis"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryBaseDelay  time.Duration `yaml:"retry_base_delay"`
}

type HTTPClientConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

func Default() Config {
	return Config{
		ServiceName: "perf-kpi-service",
		Environment: "local",
		Version:     "dev",
		LogLevel:    "info",
		HTTPAddr:    ":8080",
		Store: StoreConfig{
			Driver:      StoreDriverPostgres,
			SourceTable: "events",
			KpiTable:    "kpi_records",
		},
		Metrics: MetricsAPIConfig{
			Operations: map[string]string{},
		},
		Kafka: KafkaConfig{
			Topic:           "perf-kpi-quarterly",
			MaxMessageBytes: 1 << 20,
		},
		Window: WindowConfig{
			DefaultMode: string(usecase.WindowPreviousMonth),
			Timezone:    "UTC",
		},
		Schedule: ScheduleConfig{
			MonthlyInterval: 24 * time.Hour,
			MonthlyKpis:     "PERF-01,PERF-02,PERF-03,PERF-04,PERF-05,PERF-06",
			HourlyInterval:  time.Hour,
			HourlyKpis:      "PERF-02E",
			MaxRetries:      3,
			RetryBaseDelay:  30 * time.Second,
		},
		HTTPClient: HTTPClientConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Load layers defaults, the optional YAML file named by CONFIG_FILE and
// environment variables, in that order.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Environment, "ENVIRONMENT")
	setString(&cfg.Version, "APP_VERSION")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.HTTPAddr, "HTTP_ADDR")

	setString(&cfg.Store.Driver, "STORE_DRIVER")
	setString(&cfg.Store.DSN, "POSTGRES_DSN")
	setString(&cfg.Store.SourceTable, "SOURCE_TABLE")
	setString(&cfg.Store.KpiTable, "KPI_TABLE")

	setString(&cfg.Metrics.URL, "APP_INSIGHTS_API_URL")
	setString(&cfg.Metrics.APIKey, "APP_INSIGHTS_API_KEY")
	setString(&cfg.Metrics.CloudRoleName, "CLOUD_ROLE_NAME")
	if cfg.Metrics.Operations == nil {
		cfg.Metrics.Operations = map[string]string{}
	}
	for _, id := range domain.AllKpiIDs() {
		if id.Kind() != domain.KindLatency {
			continue
		}
		if v, ok := lookupOperation(id); ok {
			cfg.Metrics.Operations[string(id)] = v
		}
	}

	setString(&cfg.Status.URL, "BETTERSTACK_API_URL")
	setString(&cfg.Status.APIKey, "BETTERSTACK_API_KEY")

	if v, ok := lookup("KAFKA_BROKERS"); ok {
		cfg.Kafka.Brokers = splitList(v)
	}
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")

	setString(&cfg.Window.DefaultMode, "DEFAULT_WINDOW_MODE")
	setString(&cfg.Window.Timezone, "TIMEZONE")

	setString(&cfg.Schedule.MonthlyKpis, "SCHEDULE_MONTHLY_KPIS")
	setString(&cfg.Schedule.HourlyKpis, "SCHEDULE_HOURLY_KPIS")

	for _, set := range []func() error{
		func() error { return setBool(&cfg.Store.AutoMigrate, "AUTO_MIGRATE") },
		func() error { return setInt(&cfg.Kafka.MaxMessageBytes, "KAFKA_MAX_MESSAGE_BYTES") },
		func() error { return setBool(&cfg.Schedule.Enabled, "SCHEDULE_ENABLED") },
		func() error { return setDuration(&cfg.Schedule.MonthlyInterval, "SCHEDULE_MONTHLY_INTERVAL") },
		func() error { return setDuration(&cfg.Schedule.HourlyInterval, "SCHEDULE_HOURLY_INTERVAL") },
		func() error { return setInt(&cfg.Schedule.MaxRetries, "SCHEDULE_MAX_RETRIES") },
		func() error { return setDuration(&cfg.Schedule.RetryBaseDelay, "SCHEDULE_RETRY_BASE_DELAY") },
		func() error { return setDuration(&cfg.HTTPClient.Timeout, "HTTP_CLIENT_TIMEOUT") },
	} {
		if err := set(); err != nil {
			return err
		}
	}
	return nil
}

// lookupOperation reads PERF-03_OPERATION_NAME, falling back to the
// shell-friendly PERF_03_OPERATION_NAME.
func lookupOperation(id domain.KpiID) (string, bool) {
	if v, ok := lookup(string(id) + "_OPERATION_NAME"); ok {
		return v, true
	}
	return lookup(strings.ReplaceAll(string(id), "-", "_") + "_OPERATION_NAME")
}

// Validate checks values that have no usable default. Credentials for the
// external APIs are checked lazily so unrelated KPIs keep working.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: POSTGRES_DSN", domain.ErrConfigurationMissing)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("%w: STORE_DRIVER must be %q or %q, got %q",
			domain.ErrConfigurationMissing, StoreDriverPostgres, StoreDriverMemory, c.Store.Driver)
	}

	if _, err := usecase.ParseWindowMode(c.Window.DefaultMode); err != nil {
		return fmt.Errorf("%w: DEFAULT_WINDOW_MODE: %v", domain.ErrConfigurationMissing, err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: TIMEZONE: %v", domain.ErrConfigurationMissing, err)
	}
	if c.Schedule.Enabled {
		if _, err := domain.ParseSelector(c.Schedule.MonthlyKpis); err != nil {
			return fmt.Errorf("SCHEDULE_MONTHLY_KPIS: %w", err)
		}
		if _, err := domain.ParseSelector(c.Schedule.HourlyKpis); err != nil {
			return fmt.Errorf("SCHEDULE_HOURLY_KPIS: %w", err)
		}
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	if c.Window.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Window.Timezone)
}

func (c Config) WindowMode() usecase.WindowMode {
	m, err := usecase.ParseWindowMode(c.Window.DefaultMode)
	if err != nil {
		return usecase.WindowPreviousMonth
	}
	return m
}

// Operation returns the configured operation name of a latency KPI.
func (c Config) Operation(id domain.KpiID) string {
	return c.Metrics.Operations[string(id)]
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
