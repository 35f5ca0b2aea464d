package model

import "fmt"

// Status values mirror the jobs.status CHECK constraint in PostgreSQL.
//
//	upcoming ──► open ──► closed ──► result_out
type Status string

const (
	StatusOpen      Status = "open"
	StatusUpcoming  Status = "upcoming"
	StatusResultOut Status = "result_out"
	StatusClosed    Status = "closed"
)

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values. Matching is exact.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusOpen, StatusUpcoming, StatusResultOut, StatusClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// IsFinal returns true once results are published. Closed is not final: a
// closed posting reopens when its last date is extended.
func IsFinal(s Status) bool { return s == StatusResultOut }

// NextStatus returns the status to keep when a stored posting is seen again
// with status next. Only result_out is sticky.
func NextStatus(current, next Status) Status {
	if IsFinal(current) {
		return current
	}
	return next
}
