package integration

import (
	"time"

	"github.com/google/uuid"
)

// Batch item outcomes
const (
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// ItemFailure describes one entity a batch could not process
type ItemFailure struct {
	ID        uuid.UUID `json:"id"`
	Reference string    `json:"reference"`
	Error     string    `json:"error"`
}

// BatchSummary reports what a reconciliation or stock sync run did.
// Every examined entity is counted in exactly one of Updated, Unchanged,
// Skipped or Failed.
type BatchSummary struct {
	Total      int           `json:"total"`
	Updated    int           `json:"updated"`
	Unchanged  int           `json:"unchanged"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Failures   []ItemFailure `json:"failures,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

func newBatchSummary(total int, startedAt time.Time) *BatchSummary {
	return &BatchSummary{Total: total, StartedAt: startedAt}
}

func (s *BatchSummary) record(outcome string) {
	switch outcome {
	case OutcomeUpdated:
		s.Updated++
	case OutcomeUnchanged:
		s.Unchanged++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

func (s *BatchSummary) fail(id uuid.UUID, reference string, err error) {
	s.Failed++
	s.Failures = append(s.Failures, ItemFailure{ID: id, Reference: reference, Error: err.Error()})
}

// Outcomes returns the counters keyed by outcome name. A nil summary
// (batch aborted before it started) has no outcomes.
func (s *BatchSummary) Outcomes() map[string]int {
	if s == nil {
		return nil
	}
	return map[string]int{
		OutcomeUpdated:   s.Updated,
		OutcomeUnchanged: s.Unchanged,
		OutcomeSkipped:   s.Skipped,
		OutcomeFailed:    s.Failed,
	}
}

// Duration is the wall time of the run
func (s *BatchSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
