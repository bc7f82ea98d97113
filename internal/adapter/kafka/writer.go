package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/county-data-etl/internal/config"
	"github.com/couchcryptid/county-data-etl/internal/domain"
	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes merged county records to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSinkTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the loader in logs.
func (w *Writer) Name() string { return "kafka" }

// Load publishes one message per merged county record in a single
// WriteMessages call. Messages are keyed by FIPS code so a county always
// lands on the same partition.
func (w *Writer) Load(ctx context.Context, res *domain.Result) error {
	if len(res.Housing) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(res.Housing))
	for i := range res.Housing {
		msg, err := serializeToMessage(res.Housing[i], res.RunID, res.RunAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish county records: %w", err)
	}
	w.logger.Info("county records published", "run_id", res.RunID, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a MergedCountyRecord into a Kafka message.
func serializeToMessage(rec domain.MergedCountyRecord, runID string, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize county record %s: %w", rec.Key, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
			{Key: "house_pov_ind", Value: []byte(strconv.FormatBool(rec.HousePovertyIndicator))},
		},
	}, nil
}
