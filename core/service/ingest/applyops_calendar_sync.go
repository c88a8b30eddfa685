package ingest

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"applyops_server/core/domain"
	"applyops_server/core/port/out"
	"applyops_server/pkg/logger"
)

// CalendarSyncer mirrors an application's interview date onto the user's
// calendar. Failures are logged, never propagated: a calendar outage
// must not fail ingestion or lose an application update.
type CalendarSyncer struct {
	calendar out.CalendarProvider
	timeZone string
	log      *logger.Logger
}

func NewCalendarSyncer(calendar out.CalendarProvider, timeZone string) *CalendarSyncer {
	return &CalendarSyncer{
		calendar: calendar,
		timeZone: timeZone,
		log:      logger.Default().WithField("component", "calendar_sync"),
	}
}

const interviewDuration = time.Hour

// Sync creates or rewrites the interview event for app and stores the
// event id back on the application. Returns true when an event was
// written. At most one event is tracked per application.
func (s *CalendarSyncer) Sync(ctx context.Context, token *oauth2.Token, app *domain.Application) bool {
	if s.calendar == nil || app.InterviewAt == nil {
		return false
	}

	event := &out.CalendarEvent{
		Summary:     fmt.Sprintf("Interview: %s - %s", app.Company, app.Role),
		Description: buildEventDescription(app),
		Start:       *app.InterviewAt,
		End:         app.InterviewAt.Add(interviewDuration),
		TimeZone:    s.timeZone,
	}

	if app.CalendarEventID != nil && *app.CalendarEventID != "" {
		if err := s.calendar.UpdateEvent(ctx, token, *app.CalendarEventID, event); err == nil {
			return true
		} else {
			s.log.WithField("application_id", app.ID.String()).WithError(err).
				Warn("calendar event update failed, recreating")
		}
	}

	// Only an interviewing row gets a new event. A rejection or offer
	// mail that happens to mention a date must not schedule anything.
	if app.Status != domain.StatusInterviewing {
		return false
	}

	eventID, err := s.calendar.CreateEvent(ctx, token, event)
	if err != nil {
		s.log.WithField("application_id", app.ID.String()).WithError(err).
			Warn("calendar event creation failed")
		return false
	}
	app.CalendarEventID = &eventID
	return true
}

// Remove deletes the tracked event, if any. Best-effort like Sync.
func (s *CalendarSyncer) Remove(ctx context.Context, token *oauth2.Token, app *domain.Application) {
	if s.calendar == nil || app.CalendarEventID == nil || *app.CalendarEventID == "" {
		return
	}
	if err := s.calendar.DeleteEvent(ctx, token, *app.CalendarEventID); err != nil {
		s.log.WithField("application_id", app.ID.String()).WithError(err).
			Warn("calendar event deletion failed")
		return
	}
	app.CalendarEventID = nil
}

func buildEventDescription(app *domain.Application) string {
	desc := fmt.Sprintf("Interview for %s at %s.\nStatus: %s", app.Role, app.Company, app.Status)
	if app.Location != nil && *app.Location != "" {
		desc += "\nLocation: " + *app.Location
	}
	if app.URL != nil && *app.URL != "" {
		desc += "\nEmail: " + *app.URL
	}
	return desc
}
