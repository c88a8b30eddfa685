package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a job application.
type Status string

const (
	StatusApplied      Status = "applied"
	StatusViewed       Status = "viewed"
	StatusInterviewing Status = "interviewing"
	StatusOffered      Status = "offered"
	StatusRejected     Status = "rejected"
	StatusWithdrawn    Status = "withdrawn"
)

// AllStatuses lists every valid status. Tests assert the priority order is
// total over this set.
var AllStatuses = []Status{
	StatusApplied,
	StatusViewed,
	StatusInterviewing,
	StatusOffered,
	StatusRejected,
	StatusWithdrawn,
}

// Priority returns the total order used by the reconciler to decide whether
// an automated update is an upgrade. Rejected and withdrawn are terminal but
// not dominant: any later signal outranks them.
func (s Status) Priority() int {
	switch s {
	case StatusRejected, StatusWithdrawn:
		return 0
	case StatusApplied:
		return 1
	case StatusViewed:
		return 2
	case StatusInterviewing:
		return 3
	case StatusOffered:
		return 4
	default:
		return 1
	}
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusApplied, StatusViewed, StatusInterviewing, StatusOffered, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// MapClassifierStatus maps the classifier's coarse status vocabulary onto the
// application lifecycle. Anything unrecognized degrades to applied.
func MapClassifierStatus(s string) Status {
	switch s {
	case "INTERVIEW":
		return StatusInterviewing
	case "OFFER":
		return StatusOffered
	case "REJECTED":
		return StatusRejected
	default:
		return StatusApplied
	}
}

// Application is the central entity: one tracked job application per company
// and role for a user.
type Application struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	Company         string     `db:"company" json:"company"`
	Role            string     `db:"role" json:"role"`
	Status          Status     `db:"status" json:"status"`
	Platform        string     `db:"platform" json:"platform"`
	AppliedAt       time.Time  `db:"applied_at" json:"applied_at"`
	InterviewAt     *time.Time `db:"interview_at" json:"interview_at,omitempty"`
	Salary          *string    `db:"salary" json:"salary,omitempty"`
	Location        *string    `db:"location" json:"location,omitempty"`
	URL             *string    `db:"url" json:"url,omitempty"`
	Notes           *string    `db:"notes" json:"notes,omitempty"`
	CalendarEventID *string    `db:"calendar_event_id" json:"calendar_event_id,omitempty"`
	EmailID         *string    `db:"email_id" json:"email_id,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

var senderDomainRe = regexp.MustCompile(`@([\w.-]+)`)

var platformByDomain = map[string]string{
	"linkedin.com": "LinkedIn",
	"naukri.com":   "Naukri",
	"indeed.com":   "Indeed",
	"amazon.jobs":  "Amazon Careers",
	"google.com":   "Google Careers",
}

// PlatformFromSender infers the application platform from a sender address.
func PlatformFromSender(from string) string {
	m := senderDomainRe.FindStringSubmatch(from)
	if len(m) == 2 {
		if platform, ok := platformByDomain[m[1]]; ok {
			return platform
		}
	}
	return "Company Portal"
}
