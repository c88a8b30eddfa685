// Package ingest implements the mailbox ingestion pipeline: matching,
// reconciliation, calendar sync and the orchestrating service.
package ingest

import (
	"sort"
	"strings"

	"applyops_server/core/domain"
)

// Matcher links a classified company name to an existing application.
type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// corporate suffixes stripped before comparison, so "Acme Inc." still
// matches "Acme".
var companySuffixes = []string{
	"inc", "inc.", "llc", "ltd", "ltd.", "corp", "corp.", "co", "co.",
	"gmbh", "limited", "corporation", "technologies", "labs",
}

// NormalizeCompany lowercases, trims punctuation and drops trailing
// corporate suffixes.
func NormalizeCompany(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Trim(s, ".,;:!?\"'")

	words := strings.Fields(s)
	for len(words) > 1 {
		last := words[len(words)-1]
		dropped := false
		for _, suffix := range companySuffixes {
			if last == suffix {
				words = words[:len(words)-1]
				dropped = true
				break
			}
		}
		if !dropped {
			break
		}
	}
	return strings.Join(words, " ")
}

// Match returns the existing application whose company name contains, or
// is contained by, the candidate name. When several qualify the most
// recently updated one wins, so repeated emails from the same company
// keep landing on the row the user actually cares about.
func (m *Matcher) Match(apps []*domain.Application, company string) *domain.Application {
	needle := NormalizeCompany(company)
	if needle == "" {
		return nil
	}

	var candidates []*domain.Application
	for _, app := range apps {
		existing := NormalizeCompany(app.Company)
		if existing == "" {
			continue
		}
		if strings.Contains(existing, needle) || strings.Contains(needle, existing) {
			candidates = append(candidates, app)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
	})
	return candidates[0]
}
