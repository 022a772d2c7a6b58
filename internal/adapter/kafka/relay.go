// Package kafka mirrors mutation events onto a Kafka topic so downstream
// consumers (archival, analytics) see the same stream the live observers do.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/disaster-response-core/internal/config"
	"github.com/couchcryptid/disaster-response-core/internal/domain"
	"github.com/couchcryptid/disaster-response-core/internal/observability"
)

// Relay produces mutation events to the configured events topic.
// It implements broadcast.Relay.
type Relay struct {
	writer  *kafkago.Writer
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRelay creates a Kafka producer for the events topic.
func NewRelay(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Relay {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Relay{writer: w, clock: clock, logger: logger, metrics: metrics}
}

// Publish mirrors one mutation event to Kafka. Keyed by topic so all events
// for a disaster land on the same partition, preserving their order.
func (r *Relay) Publish(ctx context.Context, event domain.MutationEvent) error {
	msg, err := r.serializeToMessage(event)
	if err != nil {
		r.metrics.RelayPublishes.WithLabelValues("failed").Inc()
		return err
	}
	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		r.metrics.RelayPublishes.WithLabelValues("failed").Inc()
		return fmt.Errorf("write mutation event: %w", err)
	}
	r.metrics.RelayPublishes.WithLabelValues("ok").Inc()
	return nil
}

func (r *Relay) Close() error {
	return r.writer.Close()
}

// serializeToMessage marshals a MutationEvent into a Kafka message.
func (r *Relay) serializeToMessage(event domain.MutationEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize mutation event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Topic),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(event.Kind)},
			{Key: "published_at", Value: []byte(r.clock.Now().UTC().Format(time.RFC3339))},
		},
	}, nil
}
