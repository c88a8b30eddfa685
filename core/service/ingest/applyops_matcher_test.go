package ingest

import (
	"testing"
	"time"

	"applyops_server/core/domain"
)

func TestNormalizeCompany(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Inc.", "acme"},
		{"Acme Inc", "acme"},
		{"ACME", "acme"},
		{"  Stripe, ", "stripe"},
		{"Initech Technologies", "initech"},
		{"Hooli Labs Inc.", "hooli"},
		{"Wayne Enterprises", "wayne enterprises"},
		{"Inc", "inc"}, // a lone suffix is kept, never emptied
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeCompany(tt.in); got != tt.want {
			t.Errorf("NormalizeCompany(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func appWithCompany(company string, updatedAt time.Time) *domain.Application {
	return &domain.Application{Company: company, UpdatedAt: updatedAt}
}

func TestMatcherMatch(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMatcher()

	t.Run("exact match after suffix stripping", func(t *testing.T) {
		apps := []*domain.Application{appWithCompany("Acme Inc.", base)}
		if got := m.Match(apps, "Acme"); got != apps[0] {
			t.Errorf("expected Acme Inc. to match Acme, got %v", got)
		}
	})

	t.Run("bidirectional substring", func(t *testing.T) {
		apps := []*domain.Application{appWithCompany("Google", base)}
		if got := m.Match(apps, "Google India"); got != apps[0] {
			t.Error("expected candidate containing existing name to match")
		}
		apps = []*domain.Application{appWithCompany("Google India", base)}
		if got := m.Match(apps, "Google"); got != apps[0] {
			t.Error("expected existing name containing candidate to match")
		}
	})

	t.Run("no match", func(t *testing.T) {
		apps := []*domain.Application{appWithCompany("Stripe", base)}
		if got := m.Match(apps, "Square"); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("empty candidate matches nothing", func(t *testing.T) {
		apps := []*domain.Application{appWithCompany("Stripe", base)}
		if got := m.Match(apps, "  "); got != nil {
			t.Errorf("expected nil for blank candidate, got %v", got)
		}
	})

	t.Run("most recently updated wins", func(t *testing.T) {
		older := appWithCompany("Acme", base.Add(-48*time.Hour))
		newer := appWithCompany("Acme Inc.", base)
		apps := []*domain.Application{older, newer}

		if got := m.Match(apps, "Acme"); got != newer {
			t.Errorf("expected most recently updated application, got %+v", got)
		}

		// Order in the slice must not matter.
		apps = []*domain.Application{newer, older}
		if got := m.Match(apps, "Acme"); got != newer {
			t.Errorf("expected most recently updated application regardless of order, got %+v", got)
		}
	})
}
