package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Decision is emitted once per completed evaluation.
type Decision struct {
	ID              string         `json:"id"`
	RequestID       string         `json:"requestId,omitempty"`
	Decision        string         `json:"decision"`
	Ratings         map[string]int `json:"ratings"`
	ConfidenceScore string         `json:"confidenceScore,omitempty"`
	Summary         string         `json:"summary"`
	Turns           int            `json:"turns"`
	Notified        bool           `json:"notified"`
	OccurredAt      time.Time      `json:"occurredAt"`
}

type Config struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes decision events to Kafka. Without brokers it runs in
// log-only mode.
type Publisher struct {
	writer  messageWriter
	topic   string
	enabled bool
	logger  *zap.Logger
}

const defaultTopic = "interview.decisions"

func New(cfg *Config, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		logger.Info("kafka disabled, using log-only mode")
		return &Publisher{logger: logger}
	}

	topic := cfg.Topic
	if topic == "" {
		topic = defaultTopic
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	logger.Info("kafka publisher initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", topic),
	)

	return &Publisher{writer: writer, topic: topic, enabled: true, logger: logger}
}

func (p *Publisher) PublishDecision(ctx context.Context, event Decision) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.logger.Debug("publishing decision event",
		zap.String("topic", p.topic),
		zap.String("key", event.ID),
		zap.ByteString("payload", payload),
	)

	if !p.enabled || p.writer == nil {
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(event.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte("interview.decision")},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to write to kafka",
			zap.String("topic", p.topic),
			zap.String("key", event.ID),
			zap.Error(err),
		)
		return err
	}

	return nil
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
