package domain

import "testing"

func TestStatusPriorityOrder(t *testing.T) {
	tests := []struct {
		status Status
		want   int
	}{
		{StatusRejected, 0},
		{StatusWithdrawn, 0},
		{StatusApplied, 1},
		{StatusViewed, 2},
		{StatusInterviewing, 3},
		{StatusOffered, 4},
	}

	if len(tests) != len(AllStatuses) {
		t.Fatalf("priority table covers %d statuses, AllStatuses has %d", len(tests), len(AllStatuses))
	}

	for _, tt := range tests {
		if got := tt.status.Priority(); got != tt.want {
			t.Errorf("Priority(%s) = %d, want %d", tt.status, got, tt.want)
		}
	}

	// Terminal states must never outrank an active pipeline state.
	for _, active := range []Status{StatusApplied, StatusViewed, StatusInterviewing, StatusOffered} {
		if StatusRejected.Priority() >= active.Priority() {
			t.Errorf("rejected priority %d should be below %s priority %d",
				StatusRejected.Priority(), active, active.Priority())
		}
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range AllStatuses {
		if !s.IsValid() {
			t.Errorf("IsValid(%s) = false, want true", s)
		}
	}
	for _, s := range []Status{"", "pending", "APPLIED", "ghosted"} {
		if s.IsValid() {
			t.Errorf("IsValid(%q) = true, want false", s)
		}
	}
}

func TestMapClassifierStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{ClassifierApplied, StatusApplied},
		{ClassifierInterview, StatusInterviewing},
		{ClassifierOffer, StatusOffered},
		{ClassifierRejected, StatusRejected},
		{"", StatusApplied},
		{"SOMETHING_ELSE", StatusApplied},
	}

	for _, tt := range tests {
		if got := MapClassifierStatus(tt.in); got != tt.want {
			t.Errorf("MapClassifierStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPlatformFromSender(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{"jobs-noreply@linkedin.com", "LinkedIn"},
		{"Naukri <notifications@naukri.com>", "Naukri"},
		{"no-reply@indeed.com", "Indeed"},
		{"recruiting@amazon.jobs", "Amazon Careers"},
		{"careers@acme.io", "Company Portal"},
		{"not an address", "Company Portal"},
	}

	for _, tt := range tests {
		if got := PlatformFromSender(tt.from); got != tt.want {
			t.Errorf("PlatformFromSender(%q) = %q, want %q", tt.from, got, tt.want)
		}
	}
}
