package domain

import "time"

// Classifier status vocabulary. The classifier speaks a coarser language
// than the application lifecycle; MapClassifierStatus bridges the two.
const (
	ClassifierApplied   = "APPLIED"
	ClassifierInterview = "INTERVIEW"
	ClassifierRejected  = "REJECTED"
	ClassifierOffer     = "OFFER"
)

// Verdict is the structured output of the email classifier for one message.
// A nil *Verdict means "not a job email" (or the classifier failed and the
// message should stay eligible for retry).
type Verdict struct {
	IsJobEmail    bool       `json:"isJobEmail"`
	Company       string     `json:"company"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	Round         string     `json:"round,omitempty"`
	Confidence    float64    `json:"confidence"`
	InterviewDate *time.Time `json:"interviewDate,omitempty"`
	Location      string     `json:"location,omitempty"`
	Salary        string     `json:"salary,omitempty"`
	Platform      string     `json:"platform,omitempty"`
	Summary       string     `json:"summary,omitempty"`
}
