package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	kpidomain "perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/quarter/core/ports"
)

// DefaultMaxMessageBytes matches the broker default message.max.bytes.
const DefaultMaxMessageBytes = 1 << 20

type Config struct {
	Brokers         []string
	Topic           string
	ClientID        string
	MaxMessageBytes int
	WriteTimeout    time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends quarterly summaries to the event stream. Without brokers
// it runs disabled and refuses every publish.
type Publisher struct {
	cfg     Config
	log     *slog.Logger
	writer  messageWriter
	enabled bool
}

var _ ports.SummaryPublisherPort = (*Publisher)(nil)

var errPublisherNilLogger = errors.New("publisher requires a logger")

func NewPublisher(cfg Config, log *slog.Logger) (*Publisher, error) {
	if log == nil {
		return nil, errPublisherNilLogger
	}
	cfg = withDefaults(cfg)

	if len(cfg.Brokers) == 0 {
		log.Info("summary_publisher_disabled", slog.String("reason", "no brokers"))
		return &Publisher{cfg: cfg, log: log, enabled: false}, nil
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("%w: KAFKA_TOPIC", kpidomain.ErrConfigurationMissing)
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchBytes:             int64(cfg.MaxMessageBytes),
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: false,
		Transport: &kafka.Transport{
			ClientID: cfg.ClientID,
		},
	}
	return newPublisherWithWriter(cfg, log, w), nil
}

// newPublisherWithWriter wires the provided writer into the publisher. It is used in tests.
func newPublisherWithWriter(cfg Config, log *slog.Logger, w messageWriter) *Publisher {
	cfg = withDefaults(cfg)
	return &Publisher{
		cfg:     cfg,
		log:     log.With(slog.String("component", "summary_publisher")),
		writer:  w,
		enabled: true,
	}
}

func withDefaults(cfg Config) Config {
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = DefaultMaxMessageBytes
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "perf-kpi-service"
	}
	return cfg
}

// Enabled reports whether brokers were configured.
func (p *Publisher) Enabled() bool { return p.enabled }

// Publish sends payload as a single message. Oversized payloads are
// rejected before reaching the broker.
func (p *Publisher) Publish(ctx context.Context, key string, payload []byte) error {
	if !p.enabled {
		return fmt.Errorf("%w: KAFKA_BROKERS", kpidomain.ErrConfigurationMissing)
	}
	if len(payload) > p.cfg.MaxMessageBytes {
		return fmt.Errorf("%w: payload of %d bytes exceeds %d", kpidomain.ErrPublish, len(payload), p.cfg.MaxMessageBytes)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("summary_publish_failed", slog.String("key", key), slog.Any("err", err))
		return fmt.Errorf("%w: %v", kpidomain.ErrPublish, err)
	}

	p.log.Info("summary_published",
		slog.String("topic", p.cfg.Topic),
		slog.String("key", key),
		slog.Int("bytes", len(payload)),
	)
	return nil
}

func (p *Publisher) Close() error {
	if !p.enabled || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
