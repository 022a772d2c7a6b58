package domain

import "encoding/json"

// MutationKind describes what happened to the affected record.
type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
)

// MutationEvent is the ephemeral notification published after a successful
// write. It is never persisted; delivery is best-effort and unacknowledged.
type MutationEvent struct {
	Topic   string          `json:"topic"`
	Kind    MutationKind    `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EntityType identifies a tracked record kind.
type EntityType string

const (
	EntityDisaster EntityType = "disaster"
	EntityResource EntityType = "resource"
	EntityReport   EntityType = "report"
)

// EntityRef identifies the record touched by a write. Resources and reports
// carry the ID of the disaster they belong to.
type EntityRef struct {
	Type       EntityType `json:"type"`
	ID         string     `json:"id"`
	DisasterID string     `json:"disaster_id,omitempty"`
}

// DisasterTopic returns the fan-out topic for a disaster and everything
// tracked under it.
func DisasterTopic(id string) string {
	return "disaster:" + id
}

// TopicsFor derives the topics touched by a write. Child mutations publish to
// their parent disaster's topic so observers watching a disaster see every
// resource and report change under it. A child without a known parent falls
// back to its own topic rather than being dropped silently.
func TopicsFor(ref EntityRef) []string {
	switch ref.Type {
	case EntityDisaster:
		return []string{DisasterTopic(ref.ID)}
	case EntityResource, EntityReport:
		if ref.DisasterID != "" {
			return []string{DisasterTopic(ref.DisasterID)}
		}
		return []string{string(ref.Type) + ":" + ref.ID}
	default:
		return nil
	}
}
