package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/cross-section-service/internal/config"
	"github.com/couchcryptid/cross-section-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Header keys set on every published result.
const (
	HeaderRequestID   = "request_id"
	HeaderProcessedAt = "processed_at"
)

// Writer produces cross-section results to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchBytes:   cfg.MaxRequestBytes,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes the results in a single WriteMessages call. Results are
// keyed by request ID so retries of one request land on one partition.
func (w *Writer) LoadBatch(ctx context.Context, results []domain.CrossSection) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d results: %w", len(msgs), err)
	}
	w.logger.Debug("published cross-sections", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a CrossSection into a Kafka message.
func serializeToMessage(cs domain.CrossSection) (kafkago.Message, error) {
	data, err := json.Marshal(cs)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize cross-section %q: %w", cs.RequestID, err)
	}
	return kafkago.Message{
		Key:   []byte(cs.RequestID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderRequestID, Value: []byte(cs.RequestID)},
			{Key: HeaderProcessedAt, Value: []byte(cs.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
