package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/aviation-accident-etl/internal/config"
	"github.com/couchcryptid/aviation-accident-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Notifier publishes one message per completed run to a Kafka topic.
// It implements pipeline.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured run topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Notifier{writer: w, logger: logger}
}

// Notify publishes the manifest of a finished run.
func (n *Notifier) Notify(ctx context.Context, m domain.Manifest) error {
	msg, err := manifestMessage(m)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish run manifest: %w", err)
	}
	n.logger.Info("run notification published", "topic", n.writer.Topic, "run_id", m.RunID)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// manifestMessage marshals a Manifest into a Kafka message keyed by run id.
func manifestMessage(m domain.Manifest) (kafkago.Message, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize manifest: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(m.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "facts", Value: []byte(strconv.Itoa(m.Tables[domain.TableFact]))},
			{Key: "finished_at", Value: []byte(m.FinishedAt.Format(time.RFC3339))},
		},
	}, nil
}
