package events

import "time"

// Event is implemented by every message published on the Bus.
type Event interface {
	EventType() string
	// EntityType is one of EntityEpisode, EntityLibrary or EntityScan.
	EntityType() string
	EntityID() int64
	OccurredAt() time.Time
}

// BaseEvent is embedded by concrete events. Its fields are serialized
// alongside the event payload in the event log.
type BaseEvent struct {
	Type      string    `json:"type"`
	Entity    string    `json:"entity_type"`
	ID        int64     `json:"entity_id"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EntityType() string    { return e.Entity }
func (e BaseEvent) EntityID() int64       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps an event with the current UTC time. Scan-wide events
// use entity ID 0.
func NewBaseEvent(eventType, entityType string, entityID int64) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		Entity:    entityType,
		ID:        entityID,
		Timestamp: time.Now().UTC(),
	}
}
