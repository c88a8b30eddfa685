package out

import (
	"context"

	"applyops_server/core/domain"
)

// RealtimePort pushes events to connected clients of a user.
type RealtimePort interface {
	// Subscribe opens a channel receiving the user's events.
	Subscribe(userID string) <-chan *domain.RealtimeEvent

	// Unsubscribe closes a previously opened channel.
	Unsubscribe(userID string, ch <-chan *domain.RealtimeEvent)

	// Push sends an event to a single user. Best-effort: slow consumers
	// are skipped, never blocked on.
	Push(ctx context.Context, userID string, event *domain.RealtimeEvent) error

	// ConnectedCount returns the number of open subscriptions.
	ConnectedCount() int
}
