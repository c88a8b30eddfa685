package in

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IngestService defines the inbound port for mailbox ingestion.
type IngestService interface {
	// SyncEmails scans the user's mailbox for job-related messages and
	// reconciles them into the application list. At most one run per user
	// at a time; a concurrent trigger fails with a conflict error.
	SyncEmails(ctx context.Context, userID uuid.UUID) (*SyncReport, error)
}

// SyncReport summarizes one ingestion run.
type SyncReport struct {
	Scanned        int       `json:"scanned"`
	AlreadySeen    int       `json:"already_seen"`
	NotJobRelated  int       `json:"not_job_related"`
	LowConfidence  int       `json:"low_confidence"`
	Created        int       `json:"created"`
	Updated        int       `json:"updated"`
	Unchanged      int       `json:"unchanged"`
	CalendarEvents int       `json:"calendar_events"`
	Failures       int       `json:"failures"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}
