package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

// LogSink writes click events as structured "redirect" log records.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, event models.ClickEvent) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "redirect",
		slog.String("event", "redirect"),
		slog.String("short_code", event.ShortCode),
		slog.String("client_ip", event.ClientIP),
		slog.String("user_agent", event.UserAgent),
		slog.String("timestamp", event.Timestamp.Format(time.RFC3339Nano)),
	)

	return nil
}

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink publishes click events to a Kafka topic keyed by short code,
// so events of one code stay ordered within a partition.
type KafkaSink struct {
	writer MessageWriter
}

func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

// NewKafkaWriter creates a writer for topic that balances by message key.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func (s *KafkaSink) Emit(ctx context.Context, event models.ClickEvent) error {
	const op = "analytics.KafkaSink.Emit"

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: failed to marshal click event: %w", op, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ShortCode),
		Value: data,
		Time:  event.Timestamp,
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%s: failed to write message: %w", op, err)
	}

	return nil
}

// Publisher is the subset of *nats.Conn used by NATSSink.
type Publisher interface {
	PublishMsg(msg *nats.Msg) error
}

// NATSSink publishes click events to a NATS subject.
type NATSSink struct {
	conn    Publisher
	subject string
}

func NewNATSSink(conn Publisher, subject string) *NATSSink {
	return &NATSSink{
		conn:    conn,
		subject: subject,
	}
}

func (s *NATSSink) Emit(_ context.Context, event models.ClickEvent) error {
	const op = "analytics.NATSSink.Emit"

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: failed to marshal click event: %w", op, err)
	}

	msg := nats.NewMsg(s.subject)
	msg.Header.Set("Nats-Msg-Id", event.ID)
	msg.Data = data

	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("%s: failed to publish message: %w", op, err)
	}

	return nil
}
