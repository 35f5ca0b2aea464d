package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"
	"unicode"

	"jobmate/govjobs-service/internal/model"
)

// Lexical weights of the field groups, mirroring the search vector weights
// (A, B, C, D) of the Postgres store.
const (
	weightIdentity      = 1.0 // title, organisation
	weightClassifier    = 0.4 // category, state, district
	weightQualification = 0.2
	weightDescription   = 0.1

	fuzzyBonus = 0.3
)

type scored struct {
	job   *model.Job
	score float64
}

// SearchJobs filters, ranks and pages the stored jobs.
func (s *Store) SearchJobs(_ context.Context, q model.SearchQuery) (model.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := tokens(q.Q)
	needle := strings.ToLower(strings.TrimSpace(q.Q))

	var hits []scored
	for _, j := range s.jobs {
		if !matchesFilters(j, q) {
			continue
		}
		score := 0.0
		if needle != "" {
			var ok bool
			score, ok = textScore(j, terms, needle)
			if !ok {
				continue
			}
		}
		hits = append(hits, scored{job: j, score: score})
	}

	res := model.SearchResult{
		Jobs:     []model.Job{},
		Total:    len(hits),
		Page:     q.Page,
		PageSize: q.PageSize,
		Facets:   facets(hits),
	}

	sortHits(hits, q.Sort, needle != "")

	from := min(max(q.Offset(), 0), len(hits))
	to := min(from+q.PageSize, len(hits))
	for _, h := range hits[from:to] {
		res.Jobs = append(res.Jobs, cloneJob(h.job))
	}
	return res, nil
}

func matchesFilters(j *model.Job, q model.SearchQuery) bool {
	return (q.State == "" || j.State == q.State) &&
		(q.District == "" || j.District == q.District) &&
		(q.Category == "" || j.Category == q.Category) &&
		(q.Qualification == "" || j.Qualification == q.Qualification) &&
		(q.Status == "" || j.Status == q.Status)
}

// textScore matches either lexically (every term present as a word in some
// field group) or fuzzily (the whole query is a substring of the title or
// organisation).
func textScore(j *model.Job, terms []string, needle string) (float64, bool) {
	groups := []struct {
		words  map[string]bool
		weight float64
	}{
		{wordSet(j.Title, j.Organisation), weightIdentity},
		{wordSet(j.Category, j.State, j.District), weightClassifier},
		{wordSet(j.Qualification), weightQualification},
		{wordSet(j.Description), weightDescription},
	}

	lexical := len(terms) > 0
	score := 0.0
	for _, t := range terms {
		best := 0.0
		for _, g := range groups {
			if g.words[t] && g.weight > best {
				best = g.weight
			}
		}
		if best == 0 {
			lexical = false
		}
		score += best
	}

	fuzzy := strings.Contains(strings.ToLower(j.Title), needle) ||
		strings.Contains(strings.ToLower(j.Organisation), needle)
	if fuzzy {
		score += fuzzyBonus
	}
	return score, lexical || fuzzy
}

func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func wordSet(fields ...string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range fields {
		for _, t := range tokens(f) {
			set[t] = true
		}
	}
	return set
}

func facets(hits []scored) model.Facets {
	states := map[string]bool{}
	categories := map[string]bool{}
	statuses := map[string]bool{}
	for _, h := range hits {
		if h.job.State != "" {
			states[h.job.State] = true
		}
		if h.job.Category != "" {
			categories[h.job.Category] = true
		}
		statuses[string(h.job.Status)] = true
	}
	return model.Facets{
		States:     sortedKeys(states),
		Categories: sortedKeys(categories),
		Statuses:   sortedKeys(statuses),
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func sortHits(hits []scored, order model.SortOrder, hasQuery bool) {
	latest := func(a, b scored) int {
		if c := cmpTimeDesc(a.job.PublishedAt, b.job.PublishedAt); c != 0 {
			return c
		}
		return strings.Compare(a.job.ID.String(), b.job.ID.String())
	}

	switch {
	case order == model.SortClosingSoon:
		slices.SortFunc(hits, func(a, b scored) int {
			if c := cmpTimeAsc(a.job.ApplyEndDate, b.job.ApplyEndDate); c != 0 {
				return c
			}
			return latest(a, b)
		})
	case order == model.SortRelevance && hasQuery:
		slices.SortFunc(hits, func(a, b scored) int {
			if c := cmp.Compare(b.score, a.score); c != 0 {
				return c
			}
			return latest(a, b)
		})
	default:
		slices.SortFunc(hits, latest)
	}
}

// cmpTimeAsc orders ascending with nil last.
func cmpTimeAsc(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

// cmpTimeDesc orders descending with nil last.
func cmpTimeDesc(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return b.Compare(*a)
}
