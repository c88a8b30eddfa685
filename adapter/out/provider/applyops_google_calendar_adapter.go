// Package provider holds Google API adapters outside the mailbox.
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"applyops_server/core/port/out"
	"applyops_server/pkg/apperr"
)

// interviewColorID is Google Calendar's "banana" yellow, used for all
// interview events so they stand out from the user's own entries.
const interviewColorID = "5"

// GoogleCalendarAdapter implements out.CalendarProvider on the primary
// calendar.
type GoogleCalendarAdapter struct {
	oauthConfig *oauth2.Config
}

var _ out.CalendarProvider = (*GoogleCalendarAdapter)(nil)

func NewGoogleCalendarAdapter(oauthConfig *oauth2.Config) *GoogleCalendarAdapter {
	return &GoogleCalendarAdapter{oauthConfig: oauthConfig}
}

func (a *GoogleCalendarAdapter) getService(ctx context.Context, token *oauth2.Token) (*calendar.Service, error) {
	client := a.oauthConfig.Client(ctx, token)
	return calendar.NewService(ctx, option.WithHTTPClient(client))
}

func (a *GoogleCalendarAdapter) CreateEvent(ctx context.Context, token *oauth2.Token, event *out.CalendarEvent) (string, error) {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return "", fmt.Errorf("failed to create calendar service: %w", err)
	}

	created, err := svc.Events.Insert("primary", toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return "", apperr.ExternalError("calendar", fmt.Errorf("insert event: %w", err))
	}
	return created.Id, nil
}

func (a *GoogleCalendarAdapter) UpdateEvent(ctx context.Context, token *oauth2.Token, eventID string, event *out.CalendarEvent) error {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to create calendar service: %w", err)
	}

	if _, err := svc.Events.Update("primary", eventID, toGoogleEvent(event)).Context(ctx).Do(); err != nil {
		return apperr.ExternalError("calendar", fmt.Errorf("update event: %w", err))
	}
	return nil
}

func (a *GoogleCalendarAdapter) DeleteEvent(ctx context.Context, token *oauth2.Token, eventID string) error {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to create calendar service: %w", err)
	}

	if err := svc.Events.Delete("primary", eventID).Context(ctx).Do(); err != nil {
		// Already-deleted events are fine.
		if strings.Contains(err.Error(), "404") || strings.Contains(err.Error(), "410") {
			return nil
		}
		return apperr.ExternalError("calendar", fmt.Errorf("delete event: %w", err))
	}
	return nil
}

func toGoogleEvent(event *out.CalendarEvent) *calendar.Event {
	return &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		ColorId:     interviewColorID,
		Start: &calendar.EventDateTime{
			DateTime: event.Start.Format(time.RFC3339),
			TimeZone: event.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: event.End.Format(time.RFC3339),
			TimeZone: event.TimeZone,
		},
		Reminders: &calendar.EventReminders{
			UseDefault:      false,
			ForceSendFields: []string{"UseDefault"},
			Overrides: []*calendar.EventReminder{
				{Method: "popup", Minutes: 60},
				{Method: "popup", Minutes: 24 * 60},
				{Method: "email", Minutes: 24 * 60},
			},
		},
	}
}
