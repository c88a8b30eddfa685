package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"applyops_server/core/domain"
	"applyops_server/core/port/out"
)

// EmailForClassification is the slice of a message the classifier sees.
type EmailForClassification struct {
	Subject    string
	From       string
	Snippet    string
	Body       string
	ReceivedAt time.Time
}

// Classifier decides whether a message is job-related and extracts the
// structured verdict. The model does the heavy lifting; a regex fallback
// keeps ingestion alive when the model is rate limited.
type Classifier struct {
	llm         out.LLMClient
	rateLimited out.RateLimitChecker
}

func NewClassifier(llm out.LLMClient, rl out.RateLimitChecker) *Classifier {
	return &Classifier{llm: llm, rateLimited: rl}
}

const classifySystemPrompt = `You are a job application email analyzer. Analyze the email and respond with JSON only.

Determine whether the email is about the recipient's own job application
(confirmation, interview invite, assessment, offer, rejection). Job alerts,
digests and recruiter spam about new openings are NOT job application emails.

Status must be one of: APPLIED, INTERVIEW, REJECTED, OFFER.
- APPLIED: application received/under review/viewed
- INTERVIEW: interview or assessment scheduled or requested
- REJECTED: not moving forward
- OFFER: offer extended

Respond with this exact JSON format:
{
  "isJobEmail": true|false,
  "company": "company name",
  "role": "job title",
  "status": "APPLIED|INTERVIEW|REJECTED|OFFER",
  "round": "interview round if mentioned, else empty",
  "confidence": 0.0-1.0,
  "interviewDate": "ISO 8601 datetime or null",
  "location": "work location if mentioned, else empty",
  "salary": "salary if mentioned, else empty",
  "summary": "one sentence summary"
}`

// rawVerdict matches the model's JSON; interviewDate arrives as a string.
type rawVerdict struct {
	IsJobEmail    bool    `json:"isJobEmail"`
	Company       string  `json:"company"`
	Role          string  `json:"role"`
	Status        string  `json:"status"`
	Round         string  `json:"round"`
	Confidence    float64 `json:"confidence"`
	InterviewDate string  `json:"interviewDate"`
	Location      string  `json:"location"`
	Salary        string  `json:"salary"`
	Summary       string  `json:"summary"`
}

// prefilterRe is the cheap keyword scan run before any model call. Mail
// with none of these signals is never worth a completion.
var prefilterRe = regexp.MustCompile(`(?i)apply|application|interview|offer|assessment|unfortunately|moving forward|schedule|round|technical|joining|feedback`)

// Classify returns the verdict for one message. A nil verdict with nil
// error means "confidently not a job email".
func (c *Classifier) Classify(ctx context.Context, email *EmailForClassification) (*domain.Verdict, error) {
	if !prefilterRe.MatchString(email.Subject + "\n" + email.Body) {
		return nil, nil
	}

	userPrompt := fmt.Sprintf("From: %s\nSubject: %s\nDate: %s\n\nBody:\n%s",
		email.From, email.Subject,
		email.ReceivedAt.Format(time.RFC3339),
		truncateBody(email.Body, 3000))

	resp, err := c.llm.CompleteJSON(ctx, classifySystemPrompt, userPrompt)
	if err != nil {
		if c.rateLimited != nil && c.rateLimited.IsRateLimited(err) {
			return c.classifyFallback(email), nil
		}
		return nil, err
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(resp), &raw); err != nil {
		return nil, fmt.Errorf("parse classification response: %w", err)
	}

	if !raw.IsJobEmail {
		return nil, nil
	}

	v := &domain.Verdict{
		IsJobEmail: true,
		Company:    strings.TrimSpace(raw.Company),
		Role:       strings.TrimSpace(raw.Role),
		Status:     raw.Status,
		Round:      raw.Round,
		Confidence: raw.Confidence,
		Location:   raw.Location,
		Salary:     raw.Salary,
		Summary:    raw.Summary,
		Platform:   domain.PlatformFromSender(email.From),
	}
	if raw.InterviewDate != "" && raw.InterviewDate != "null" {
		if t, err := time.Parse(time.RFC3339, raw.InterviewDate); err == nil {
			v.InterviewDate = &t
		}
	}
	return v, nil
}

var (
	rejectedRe  = regexp.MustCompile(`(?i)unfortunately|not (be )?moving forward|other candidates|regret to inform|will not be proceeding`)
	interviewRe = regexp.MustCompile(`(?i)interview|assessment|phone screen|technical round|schedule a (call|chat|conversation)`)
	offerRe     = regexp.MustCompile(`(?i)\boffer\b|congratulations|pleased to (offer|extend)`)
	appliedRe   = regexp.MustCompile(`(?i)thank you for applying|we( have)? received your application|application (was )?(received|submitted)|under review`)
	companyRe   = regexp.MustCompile(`(?i)(?:at|with|from|@)\s+([A-Z][\w&.\- ]{1,40}?)(?:[,.!\n]|$)`)
)

// classifyFallback is the degraded keyword path used when the model is
// unavailable. Confidence is pinned at 0.5 so reconciliation still runs
// but downstream consumers can tell the source apart.
func (c *Classifier) classifyFallback(email *EmailForClassification) *domain.Verdict {
	text := email.Subject + "\n" + email.Body

	var status string
	switch {
	case rejectedRe.MatchString(text):
		status = domain.ClassifierRejected
	case offerRe.MatchString(text):
		status = domain.ClassifierOffer
	case interviewRe.MatchString(text):
		status = domain.ClassifierInterview
	case appliedRe.MatchString(text):
		status = domain.ClassifierApplied
	default:
		return nil
	}

	company := ""
	if m := companyRe.FindStringSubmatch(email.Subject); len(m) > 1 {
		company = strings.TrimSpace(m[1])
	}
	if company == "" {
		company = companyFromSender(email.From)
	}
	if company == "" {
		return nil
	}

	return &domain.Verdict{
		IsJobEmail: true,
		Company:    company,
		Role:       "Software Engineer",
		Status:     status,
		Confidence: 0.5,
		Summary:    "Classified by keyword fallback",
		Platform:   domain.PlatformFromSender(email.From),
	}
}

var senderNameRe = regexp.MustCompile(`^"?([^"<@]+?)"?\s*<`)

// companyFromSender guesses a company from the display name or the
// sender domain, e.g. "careers@acme.com" -> "Acme".
func companyFromSender(from string) string {
	if m := senderNameRe.FindStringSubmatch(from); len(m) > 1 {
		name := strings.TrimSpace(m[1])
		for _, noise := range []string{"careers", "jobs", "recruiting", "talent", "no-reply", "noreply"} {
			if strings.EqualFold(name, noise) {
				name = ""
				break
			}
		}
		if name != "" {
			return name
		}
	}

	at := strings.LastIndex(from, "@")
	if at < 0 {
		return ""
	}
	domainPart := strings.Trim(from[at+1:], "> \t")
	parts := strings.Split(domainPart, ".")
	if len(parts) < 2 {
		return ""
	}
	host := parts[len(parts)-2]
	known := map[string]bool{"gmail": true, "googlemail": true, "yahoo": true, "outlook": true, "hotmail": true}
	if known[host] || host == "" {
		return ""
	}
	return strings.ToUpper(host[:1]) + host[1:]
}

func truncateBody(body string, maxLen int) string {
	if len(body) <= maxLen {
		return body
	}
	return body[:maxLen] + "..."
}
