// Package model defines shared data structures for the govjobs service.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceType selects the adapter used to read a JobSource.
type SourceType string

const (
	SourceTypeRSS  SourceType = "rss"
	SourceTypeHTML SourceType = "html"
	SourceTypePDF  SourceType = "pdf"
)

// ParseSourceType converts a raw string to a SourceType.
func ParseSourceType(s string) (SourceType, error) {
	st := SourceType(s)
	switch st {
	case SourceTypeRSS, SourceTypeHTML, SourceTypePDF:
		return st, nil
	}
	return "", fmt.Errorf("unknown source type %q", s)
}

// SourceConfig holds the per-source field-mapping options (job_sources.config).
// Values are kept as decoded from JSON; use String and Float to read them.
type SourceConfig map[string]any

// String returns the option as trimmed text, or def when absent or blank.
func (c SourceConfig) String(key, def string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return def
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// Float returns the option as a number. Numeric strings are accepted.
func (c SourceConfig) Float(key string) (float64, bool) {
	switch t := c[key].(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// JobSource mirrors a job_sources row.
type JobSource struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	BaseURL   string       `json:"baseUrl"`
	Type      SourceType   `json:"type"`
	Config    SourceConfig `json:"config"`
	Active    bool         `json:"active"`
	LastRunAt *time.Time   `json:"lastRunAt"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// RawListing is one posting as an adapter found it. It is never persisted.
type RawListing struct {
	Title        string
	Organisation string
	Link         string
	Description  string
	PublishedAt  *time.Time
	LastDate     *time.Time
}

// Job is the canonical, deduplicated record of one real-world posting.
// SourceHash is the sole deduplication key.
type Job struct {
	ID                      uuid.UUID  `json:"id"`
	SourceID                uuid.UUID  `json:"sourceId"`
	Title                   string     `json:"title"`
	Organisation            string     `json:"organisation"`
	SourceURL               string     `json:"sourceUrl"`
	OfficialNotificationURL string     `json:"officialNotificationUrl,omitempty"`
	SourceHash              string     `json:"sourceHash"`
	Category                string     `json:"category,omitempty"`
	Qualification           string     `json:"qualification,omitempty"`
	Status                  Status     `json:"status"`
	State                   string     `json:"state,omitempty"`
	District                string     `json:"district,omitempty"`
	Lat                     *float64   `json:"lat"`
	Lon                     *float64   `json:"lon"`
	LocationLabel           string     `json:"locationLabel,omitempty"`
	Vacancies               *int       `json:"vacancies"`
	Description             string     `json:"description,omitempty"`
	AgeLimit                string     `json:"ageLimit,omitempty"`
	Salary                  string     `json:"salary,omitempty"`
	ApplyStartDate          *time.Time `json:"applyStartDate"`
	ApplyEndDate            *time.Time `json:"applyEndDate"`
	ExamDate                *time.Time `json:"examDate"`
	PublishedAt             *time.Time `json:"publishedAt"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}

// HasPosition reports whether the job can take part in radius queries.
func (j *Job) HasPosition() bool { return j.Lat != nil && j.Lon != nil }

// UpsertOutcome is the dedup decision the store took for one candidate.
type UpsertOutcome string

const (
	OutcomeInserted  UpsertOutcome = "inserted"
	OutcomeUpdated   UpsertOutcome = "updated"
	OutcomeUnchanged UpsertOutcome = "unchanged"
)

// GeoCacheEntry is one cached reverse-geocode response keyed by rounded coordinates.
type GeoCacheEntry struct {
	Key      string          `json:"key"`
	Result   json.RawMessage `json:"result"`
	CachedAt time.Time       `json:"cachedAt"`
}
