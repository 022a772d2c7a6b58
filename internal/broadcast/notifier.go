package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/couchcryptid/disaster-response-core/internal/domain"
)

// Relay mirrors published events to an off-process sink. Optional.
type Relay interface {
	Publish(ctx context.Context, event domain.MutationEvent) error
}

// Notifier is the glue the CRUD layer calls after a committed write. It
// derives the affected topics and publishes, best-effort: nothing here can
// fail the write that already happened.
type Notifier struct {
	hub    *Hub
	relay  Relay // nil when no relay is configured
	logger *slog.Logger
}

// NewNotifier creates a Notifier. relay may be nil.
func NewNotifier(hub *Hub, relay Relay, logger *slog.Logger) *Notifier {
	return &Notifier{
		hub:    hub,
		relay:  relay,
		logger: logger,
	}
}

// NotifyMutation publishes the mutation of ref to its derived topics. The
// payload is the affected record (or a delta), already serialized by the
// caller.
func (n *Notifier) NotifyMutation(ctx context.Context, ref domain.EntityRef, kind domain.MutationKind, payload json.RawMessage) {
	for _, topic := range domain.TopicsFor(ref) {
		event := domain.MutationEvent{
			Topic:   topic,
			Kind:    kind,
			Payload: payload,
		}

		delivered := n.hub.Publish(topic, event)
		n.logger.Debug("mutation published",
			"topic", topic,
			"kind", kind,
			"entity", ref.Type,
			"delivered", delivered,
		)

		if n.relay == nil {
			continue
		}
		if err := n.relay.Publish(ctx, event); err != nil {
			n.logger.Warn("mutation relay failed", "topic", topic, "kind", kind, "error", err)
		}
	}
}
