package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TaskCreated = "TASK_CREATED"
	TaskDeleted = "TASK_DELETED"
)

// Event defines the contract for all system events.
type Event interface {
	// ID is unique per event and doubles as the bus dedup key.
	ID() string

	// EventType returns the unique code for this event (e.g., "TASK_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher delivers events to whatever bus is configured.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	EventID    string
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) ID() string {
	return e.EventID
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func newEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

func NewTaskCreated(taskID int64, ownerID, category string, hasEmbedding bool) BaseEvent {
	return newEvent(TaskCreated, map[string]interface{}{
		"task_id":       taskID,
		"owner_id":      ownerID,
		"category":      category,
		"has_embedding": hasEmbedding,
	})
}

func NewTaskDeleted(taskID int64, ownerID string) BaseEvent {
	return newEvent(TaskDeleted, map[string]interface{}{
		"task_id":  taskID,
		"owner_id": ownerID,
	})
}

// NopPublisher drops every event. Used when no bus is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error {
	return nil
}
