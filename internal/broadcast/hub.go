// Package broadcast implements topic-scoped fan-out of mutation events to
// currently connected observers. Delivery is best-effort: no history, no
// replay, no acknowledgment.
package broadcast

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/couchcryptid/disaster-response-core/internal/domain"
	"github.com/couchcryptid/disaster-response-core/internal/observability"
)

// Observer is one connected real-time consumer. Send must not block; a slow
// observer returns an error and loses the event rather than stalling the
// publish.
type Observer interface {
	ID() string
	Send(event domain.MutationEvent) error
}

// Hub tracks which observers joined which topics and fans published events
// out to them. Joins and leaves are idempotent; membership lives only as long
// as the process.
type Hub struct {
	mu sync.RWMutex
	// topic -> observer ID -> observer
	topics map[string]map[string]Observer
	// observer ID -> joined topics, so a disconnect can leave everything
	joined map[string]map[string]struct{}

	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		topics:  make(map[string]map[string]Observer),
		joined:  make(map[string]map[string]struct{}),
		logger:  logger,
		metrics: metrics,
	}
}

// Join subscribes o to topic. Joining a topic twice is a no-op.
func (h *Hub) Join(topic string, o Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[topic] == nil {
		h.topics[topic] = make(map[string]Observer)
	}
	h.topics[topic][o.ID()] = o

	if h.joined[o.ID()] == nil {
		h.joined[o.ID()] = make(map[string]struct{})
	}
	h.joined[o.ID()][topic] = struct{}{}

	h.logger.Debug("observer joined topic", "observer", o.ID(), "topic", topic)
}

// Leave unsubscribes o from topic. Leaving a topic never joined is a no-op.
func (h *Hub) Leave(topic string, o Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(topic, o.ID())
}

// LeaveAll unsubscribes o from every topic it joined. Called on observer
// disconnect.
func (h *Hub) LeaveAll(o Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic := range h.joined[o.ID()] {
		h.leaveLocked(topic, o.ID())
	}
}

func (h *Hub) leaveLocked(topic, observerID string) {
	if subs := h.topics[topic]; subs != nil {
		delete(subs, observerID)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	if topics := h.joined[observerID]; topics != nil {
		delete(topics, topic)
		if len(topics) == 0 {
			delete(h.joined, observerID)
		}
	}
}

// Publish delivers event to every observer subscribed to topic at this
// moment. The subscriber set is snapshotted under the read lock and delivery
// happens outside it, so a slow Send never blocks joins or other publishes.
// Per-observer failures are isolated: logged, counted, never propagated.
// Returns the number of successful deliveries.
func (h *Hub) Publish(topic string, event domain.MutationEvent) int {
	h.mu.RLock()
	subs := h.topics[topic]
	snapshot := make([]Observer, 0, len(subs))
	for _, o := range subs {
		snapshot = append(snapshot, o)
	}
	h.mu.RUnlock()

	// Deterministic delivery order; map iteration order is not.
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].ID() < snapshot[j].ID() })

	delivered := 0
	for _, o := range snapshot {
		if err := o.Send(event); err != nil {
			h.logger.Warn("event delivery failed",
				"observer", o.ID(),
				"topic", topic,
				"kind", event.Kind,
				"error", err,
			)
			h.metrics.BroadcastDeliveries.WithLabelValues("failed").Inc()
			continue
		}
		h.metrics.BroadcastDeliveries.WithLabelValues("ok").Inc()
		delivered++
	}
	return delivered
}

// Subscribers reports how many observers are currently in topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.topics[topic])
}

// Topics returns the topics with at least one subscriber, sorted.
func (h *Hub) Topics() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	topics := make([]string, 0, len(h.topics))
	for t := range h.topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}
