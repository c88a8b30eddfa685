package domain

import "time"

// RealtimeEventType identifies a server-sent event kind.
type RealtimeEventType string

const (
	EventApplicationCreated RealtimeEventType = "application:created"
	EventApplicationUpdated RealtimeEventType = "application:updated"
	EventApplicationDeleted RealtimeEventType = "application:deleted"
	EventSyncCompleted      RealtimeEventType = "sync:completed"
)

// RealtimeEvent is pushed to connected SSE clients of the owning user.
type RealtimeEvent struct {
	Type      RealtimeEventType `json:"type"`
	Payload   any               `json:"payload,omitempty"`
	Seq       int64             `json:"seq"`
	Timestamp time.Time         `json:"timestamp"`
}
