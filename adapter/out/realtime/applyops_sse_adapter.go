// Package realtime provides real-time communication adapters.
package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"applyops_server/core/domain"
	"applyops_server/core/port/out"
)

// SSEAdapter implements out.RealtimePort using Server-Sent Events.
type SSEAdapter struct {
	clients map[string]map[chan *domain.RealtimeEvent]struct{} // userID -> channels
	mu      sync.RWMutex
	log     zerolog.Logger

	messagesSent    int64
	messagesDropped int64
	seqCounter      int64
}

var _ out.RealtimePort = (*SSEAdapter)(nil)

// NewSSEAdapter creates a new SSE adapter.
func NewSSEAdapter(log zerolog.Logger) *SSEAdapter {
	return &SSEAdapter{
		clients: make(map[string]map[chan *domain.RealtimeEvent]struct{}),
		log:     log.With().Str("component", "sse_adapter").Logger(),
	}
}

// Subscribe creates a new subscription channel for a user.
func (a *SSEAdapter) Subscribe(userID string) <-chan *domain.RealtimeEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	ch := make(chan *domain.RealtimeEvent, 256)

	if a.clients[userID] == nil {
		a.clients[userID] = make(map[chan *domain.RealtimeEvent]struct{})
	}
	a.clients[userID][ch] = struct{}{}

	a.log.Debug().
		Str("user_id", userID).
		Int("total_connections", len(a.clients[userID])).
		Msg("client subscribed")

	return ch
}

// Unsubscribe removes a subscription channel.
func (a *SSEAdapter) Unsubscribe(userID string, ch <-chan *domain.RealtimeEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if channels, ok := a.clients[userID]; ok {
		for c := range channels {
			if c == ch {
				delete(channels, c)
				close(c)
				break
			}
		}
		if len(channels) == 0 {
			delete(a.clients, userID)
		}
	}

	a.log.Debug().
		Str("user_id", userID).
		Msg("client unsubscribed")
}

// Push sends an event to all of a user's connections. Slow consumers
// get the event dropped, never block the publisher.
func (a *SSEAdapter) Push(ctx context.Context, userID string, event *domain.RealtimeEvent) error {
	event.Seq = atomic.AddInt64(&a.seqCounter, 1)

	a.mu.RLock()
	channels, ok := a.clients[userID]
	if !ok || len(channels) == 0 {
		a.mu.RUnlock()
		return nil
	}

	chList := make([]chan *domain.RealtimeEvent, 0, len(channels))
	for ch := range channels {
		chList = append(chList, ch)
	}
	a.mu.RUnlock()

	for _, ch := range chList {
		select {
		case ch <- event:
			atomic.AddInt64(&a.messagesSent, 1)
		default:
			atomic.AddInt64(&a.messagesDropped, 1)
			a.log.Warn().
				Str("user_id", userID).
				Str("event_type", string(event.Type)).
				Int64("seq", event.Seq).
				Msg("dropped event due to full buffer")
		}
	}
	return nil
}

// ConnectedCount returns the number of open subscription channels.
func (a *SSEAdapter) ConnectedCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	count := 0
	for _, channels := range a.clients {
		count += len(channels)
	}
	return count
}
