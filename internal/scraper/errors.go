package scraper

import (
	"errors"
	"fmt"
)

// ErrUnsupportedSource is returned when no adapter is registered for a source type.
var ErrUnsupportedSource = errors.New("no adapter for source type")

// SourceFetchError reports that a source document could not be retrieved:
// network failure, timeout or a non-2xx response.
type SourceFetchError struct {
	Source     string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *SourceFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s (%s): status %d", e.Source, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s (%s): %v", e.Source, e.URL, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// SourceParseError reports that a fetched document could not be parsed.
type SourceParseError struct {
	Source string
	Err    error
}

func (e *SourceParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *SourceParseError) Unwrap() error { return e.Err }
