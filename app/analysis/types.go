package analysis

import (
	"time"
)

// Result is the structured form of one classifier reply.
type Result struct {
	ContentHash  string
	Topic        string
	Individuals  string
	Sentiment    string
	ClassifiedAt time.Time
}

type FailureKind string

const (
	FailureService FailureKind = "service"
	FailureParse   FailureKind = "parse"
)

// Failure is a record that produced no result in this run. It stays a
// candidate for the next run.
type Failure struct {
	ContentHash string
	Title       string
	Kind        FailureKind
	Err         error
}

type Report struct {
	RunID      string
	Candidates int
	Results    []Result
	Failures   []Failure
	Stored     int
	StartedAt  time.Time
	Duration   time.Duration
}

func (r *Report) FailureCount(kind FailureKind) int {
	count := 0
	for _, f := range r.Failures {
		if f.Kind == kind {
			count++
		}
	}
	return count
}
