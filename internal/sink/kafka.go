package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/report"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes each report as a JSON message keyed by its label.
// Kafka 将每个报告作为以标签为键的 JSON 消息发布。
type Kafka struct {
	topic  string
	writer messageWriter
}

// NewKafka creates a sink over a kafka-go writer.
func NewKafka(cfg config.KafkaSinkConfig) *Kafka {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           config.ParseDuration(cfg.BatchTimeout, 10*time.Millisecond),
		AllowAutoTopicCreation: false,
	}
	return newKafkaWithWriter(cfg.Topic, w)
}

func newKafkaWithWriter(topic string, w messageWriter) *Kafka {
	return &Kafka{topic: topic, writer: w}
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) Publish(ctx context.Context, r *report.Report) error {
	value, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(r.Label),
		Value: value,
		Time:  r.Timestamp,
		Headers: []kafka.Header{
			{Key: "report-id", Value: []byte(r.ID)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to %s: %w", k.topic, err)
	}
	return nil
}

func (k *Kafka) Close() error { return k.writer.Close() }
