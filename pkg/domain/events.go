package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRender EventType = "render"
	EventEdit   EventType = "edit"
	EventDrop   EventType = "drop"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	DiagramID string    `json:"diagram_id"`
}

// RenderEvent reports one full or incremental render.
type RenderEvent struct {
	EventBase
	Incremental bool          `json:"incremental"`
	Scope       string        `json:"scope,omitempty"`
	Diff        *DiagramDiff  `json:"diff,omitempty"`
	Removed     []Tombstone   `json:"removed,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Tombstone is a view dropped by a render, in its final lifecycle state.
type Tombstone struct {
	ID          string    `json:"id"`
	MappingType string    `json:"mapping_type"`
	SemanticID  string    `json:"semantic_id,omitempty"`
	State       ViewState `json:"state"`
}

// EditEvent reports one edit or drop operation and its terminal status.
type EditEvent struct {
	EventBase
	Operation string        `json:"operation"`
	Status    Status        `json:"status"`
	Duration  time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnRender func(context.Context, *RenderEvent)
	OnEdit   func(context.Context, *EditEvent)
}
