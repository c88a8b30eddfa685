package ingest

import (
	"fmt"
	"strings"
	"time"

	"applyops_server/core/domain"
)

// OutcomeKind says what the reconciler decided for one verdict.
type OutcomeKind int

const (
	OutcomeCreate OutcomeKind = iota
	OutcomeUpdate
	OutcomeUnchanged
)

// Outcome carries the decided action. App is the row to insert for
// OutcomeCreate, or the mutated existing row for OutcomeUpdate.
type Outcome struct {
	Kind          OutcomeKind
	App           *domain.Application
	StatusChanged bool
	DateChanged   bool
}

// Reconciler folds a classifier verdict into the application list.
type Reconciler struct {
	now func() time.Time
}

func NewReconciler() *Reconciler {
	return &Reconciler{now: time.Now}
}

// Reconcile decides how a verdict lands on an existing application, or
// produces a new one when nothing matches.
//
// Status never regresses: a verdict lands only when its mapped status
// has priority at least equal to the current one, so a late
// "application received" mail never demotes an interview. Rejection and
// withdrawal sit at priority zero (terminal but not dominant) and so
// never overwrite an active pipeline state. A concrete interview date
// always lands, even when the status itself does not move.
func (r *Reconciler) Reconcile(existing *domain.Application, v *domain.Verdict, email *EmailRef) *Outcome {
	now := r.now()
	newStatus := domain.MapClassifierStatus(v.Status)

	if existing == nil {
		app := &domain.Application{
			Company:   v.Company,
			Role:      v.Role,
			Status:    newStatus,
			Platform:  v.Platform,
			AppliedAt: email.ReceivedAt,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if v.InterviewDate != nil {
			d := *v.InterviewDate
			app.InterviewAt = &d
		}
		if v.Salary != "" {
			s := v.Salary
			app.Salary = &s
		}
		if v.Location != "" {
			l := v.Location
			app.Location = &l
		}
		url := email.URL
		app.URL = &url
		emailID := email.GmailID
		app.EmailID = &emailID
		appendNote(app, now, noteLabel(v.Round, "Initial"), v.Summary)
		return &Outcome{Kind: OutcomeCreate, App: app}
	}

	isUpgrade := newStatus.Priority() >= existing.Status.Priority()
	hasDate := v.InterviewDate != nil
	if !isUpgrade && !hasDate {
		return &Outcome{Kind: OutcomeUnchanged, App: existing}
	}

	out := &Outcome{Kind: OutcomeUpdate, App: existing}
	if isUpgrade {
		out.StatusChanged = existing.Status != newStatus
		existing.Status = newStatus
	}
	if hasDate {
		d := *v.InterviewDate
		existing.InterviewAt = &d
		out.DateChanged = true
	}
	if existing.Salary == nil && v.Salary != "" {
		s := v.Salary
		existing.Salary = &s
	}
	if existing.Location == nil && v.Location != "" {
		l := v.Location
		existing.Location = &l
	}
	if existing.EmailID == nil || *existing.EmailID == "" {
		emailID := email.GmailID
		existing.EmailID = &emailID
	}
	appendNote(existing, now, noteLabel(v.Round, "Update"), v.Summary)
	existing.UpdatedAt = now
	return out
}

// noteLabel picks the round-history label for a note line, e.g.
// "Round 2" from the verdict or the caller's fallback.
func noteLabel(round, fallback string) string {
	if r := strings.TrimSpace(round); r != "" {
		return r
	}
	return fallback
}

// appendNote adds a timestamped line to the application's notes. Notes
// are append-only; existing content is never rewritten.
func appendNote(app *domain.Application, at time.Time, label, summary string) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return
	}
	line := fmt.Sprintf("[%s] %s: %s", at.Format("2006-01-02 15:04"), label, summary)
	if app.Notes == nil || *app.Notes == "" {
		app.Notes = &line
		return
	}
	joined := *app.Notes + "\n" + line
	app.Notes = &joined
}

// EmailRef is the minimal message identity the reconciler needs.
type EmailRef struct {
	GmailID    string
	URL        string
	ReceivedAt time.Time
}
