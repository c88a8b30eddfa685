package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"applyops_server/core/domain"
)

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *stubLLM) CompleteJSON(ctx context.Context, system, prompt string) (string, error) {
	s.calls++
	return s.response, s.err
}

type stubRateLimit struct{ limited bool }

func (s *stubRateLimit) IsRateLimited(err error) bool { return s.limited }

func testEmail(subject, from, body string) *EmailForClassification {
	return &EmailForClassification{
		Subject:    subject,
		From:       from,
		Body:       body,
		ReceivedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestClassifyParsesModelResponse(t *testing.T) {
	c := NewClassifier(&stubLLM{response: `{
		"isJobEmail": true,
		"company": " Acme ",
		"role": "Backend Engineer",
		"status": "INTERVIEW",
		"confidence": 0.93,
		"interviewDate": "2025-06-05T14:00:00Z",
		"summary": "Interview scheduled"
	}`}, &stubRateLimit{})

	v, err := c.Classify(context.Background(), testEmail("Interview", "recruiting@acme.com", "body"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if v == nil {
		t.Fatal("expected a verdict")
	}
	if v.Company != "Acme" {
		t.Errorf("company = %q, want trimmed Acme", v.Company)
	}
	if v.Status != domain.ClassifierInterview {
		t.Errorf("status = %q, want INTERVIEW", v.Status)
	}
	if v.InterviewDate == nil || !v.InterviewDate.Equal(time.Date(2025, 6, 5, 14, 0, 0, 0, time.UTC)) {
		t.Error("expected interview date parsed")
	}
}

func TestClassifyNotJobEmail(t *testing.T) {
	// Keyword-bearing mail still reaches the model, which can say no.
	stub := &stubLLM{response: `{"isJobEmail": false}`}
	c := NewClassifier(stub, &stubRateLimit{})

	v, err := c.Classify(context.Background(), testEmail("Schedule for the offsite", "team@acme.com", "agenda attached"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if v != nil {
		t.Errorf("expected nil verdict, got %+v", v)
	}
	if stub.calls != 1 {
		t.Errorf("model calls = %d, want 1", stub.calls)
	}
}

func TestClassifyPrefilterSkipsModel(t *testing.T) {
	stub := &stubLLM{response: `{"isJobEmail": true}`}
	c := NewClassifier(stub, &stubRateLimit{})

	v, err := c.Classify(context.Background(), testEmail("Lunch?", "friend@gmail.com", "pizza on friday"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if v != nil {
		t.Errorf("expected nil verdict, got %+v", v)
	}
	if stub.calls != 0 {
		t.Errorf("model calls = %d for a keyword-free email, want 0", stub.calls)
	}
}

func TestClassifyNonRateLimitErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	c := NewClassifier(&stubLLM{err: boom}, &stubRateLimit{limited: false})

	_, err := c.Classify(context.Background(), testEmail("Interview", "hr@acme.com", "body"))
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestClassifyFallbackOnRateLimit(t *testing.T) {
	tests := []struct {
		name       string
		subject    string
		body       string
		from       string
		wantStatus string
		wantNil    bool
	}{
		{
			name:       "rejection wording",
			subject:    "Your application at Acme",
			body:       "Unfortunately we will not be moving forward.",
			from:       "careers@acme.com",
			wantStatus: domain.ClassifierRejected,
		},
		{
			name:       "offer beats interview wording",
			subject:    "Congratulations from Acme",
			body:       "We are pleased to offer you the role. The interview panel was impressed.",
			from:       "careers@acme.com",
			wantStatus: domain.ClassifierOffer,
		},
		{
			name:       "interview invite",
			subject:    "Next steps at Acme",
			body:       "We would like to schedule a call for a technical round.",
			from:       "careers@acme.com",
			wantStatus: domain.ClassifierInterview,
		},
		{
			name:       "application received",
			subject:    "Thank you for applying",
			body:       "We received your application and it is under review.",
			from:       "careers@acme.com",
			wantStatus: domain.ClassifierApplied,
		},
		{
			name:    "no job signal",
			subject: "Weekly newsletter",
			body:    "Here is what happened this week.",
			from:    "news@acme.com",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(&stubLLM{err: errors.New("429")}, &stubRateLimit{limited: true})

			v, err := c.Classify(context.Background(), testEmail(tt.subject, tt.from, tt.body))
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if tt.wantNil {
				if v != nil {
					t.Fatalf("expected nil verdict, got %+v", v)
				}
				return
			}
			if v == nil {
				t.Fatal("expected a fallback verdict")
			}
			if v.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", v.Status, tt.wantStatus)
			}
			if v.Confidence != 0.5 {
				t.Errorf("confidence = %v, fallback must pin 0.5", v.Confidence)
			}
			if v.Role != "Software Engineer" {
				t.Errorf("role = %q, fallback must default the role", v.Role)
			}
		})
	}
}

func TestCompanyFromSender(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{`"Acme Hiring" <careers@acme.com>`, "Acme Hiring"},
		{"careers@initech.io", "Initech"},
		{`"careers" <careers@initech.io>`, "Initech"},
		{"someone@gmail.com", ""},
		{"nodomainhere", ""},
	}

	for _, tt := range tests {
		if got := companyFromSender(tt.from); got != tt.want {
			t.Errorf("companyFromSender(%q) = %q, want %q", tt.from, got, tt.want)
		}
	}
}

func TestTruncateBody(t *testing.T) {
	if got := truncateBody("short", 10); got != "short" {
		t.Errorf("truncateBody short = %q", got)
	}
	long := make([]byte, 20)
	for i := range long {
		long[i] = 'a'
	}
	got := truncateBody(string(long), 10)
	if len(got) != 13 || got[10:] != "..." {
		t.Errorf("truncateBody long = %q", got)
	}
}
