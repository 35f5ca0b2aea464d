package scraper

import (
	"strings"

	"jobmate/govjobs-service/internal/model"
)

// ExcludeTerms returns the source's excludeTerms option split on commas.
func ExcludeTerms(src model.JobSource) []string {
	raw := src.Config.String("excludeTerms", "")
	if raw == "" {
		return nil
	}
	var terms []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, strings.ToLower(t))
		}
	}
	return terms
}

// ContainsRedFlag returns true if any term appears (case-insensitive)
// anywhere in the combined title + organisation + description text.
//
// A listing that matches is rejected before it reaches the store.
func ContainsRedFlag(job model.Job, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	combined := strings.ToLower(job.Title + " " + job.Organisation + " " + job.Description)
	for _, t := range terms {
		if t == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
