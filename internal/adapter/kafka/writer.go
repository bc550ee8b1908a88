// Package kafka publishes settled date reports to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/what-happened-on/internal/config"
	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/lifecycle"
	"github.com/couchcryptid/what-happened-on/internal/report"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces report messages to the outcome topic.
// It implements report.Publisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured outcome topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaOutcomeTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes r and writes it keyed by date, so every report for a
// date lands on the same partition.
func (w *Writer) Publish(ctx context.Context, r report.Report) error {
	msg, err := serializeToMessage(r)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write report %s: %w", r.Date, err)
	}
	w.logger.Debug("report published", "date", r.Date)
	return nil
}

// LoadBatch writes reports in a single produce call. It implements
// pipeline.BatchLoader.
func (w *Writer) LoadBatch(ctx context.Context, reports []report.Report) error {
	if len(reports) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(reports))
	for _, r := range reports {
		msg, err := serializeToMessage(r)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d reports: %w", len(msgs), err)
	}
	w.logger.Debug("report batch published", "size", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Report into a Kafka message. The content
// header lists the sources that settled with records.
func serializeToMessage(r report.Report) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(r.Date),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "date", Value: []byte(r.Date)},
			{Key: "built_at", Value: []byte(r.BuiltAt.Format(time.RFC3339))},
			{Key: "content_sources", Value: []byte(contentSources(r))},
		},
	}, nil
}

func contentSources(r report.Report) string {
	states := r.States()
	var ids []string
	for _, src := range domain.Sources {
		if states[src.ID] == lifecycle.StateContent {
			ids = append(ids, string(src.ID))
		}
	}
	return strings.Join(ids, ",")
}
