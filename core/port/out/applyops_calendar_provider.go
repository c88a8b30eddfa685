package out

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// CalendarEvent is the provider-neutral shape of an interview event.
type CalendarEvent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// CalendarProvider defines the outbound port for the user's calendar.
type CalendarProvider interface {
	// CreateEvent inserts an event on the primary calendar and returns
	// the provider event id.
	CreateEvent(ctx context.Context, token *oauth2.Token, event *CalendarEvent) (string, error)

	// UpdateEvent rewrites an existing event.
	UpdateEvent(ctx context.Context, token *oauth2.Token, eventID string, event *CalendarEvent) error

	// DeleteEvent removes an event. Deleting an already-gone event is not
	// an error.
	DeleteEvent(ctx context.Context, token *oauth2.Token, eventID string) error
}
