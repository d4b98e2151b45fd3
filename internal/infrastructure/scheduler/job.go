package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Summary is what a batch run reports back: counts per item outcome
type Summary interface {
	Outcomes() map[string]int
}

// Job is a batch operation run every Interval. A zero Interval registers
// the job for manual triggering only.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (map[string]int, error)
}

// NewBatchJob adapts a batch service method to a Job
func NewBatchJob[S Summary](name string, interval time.Duration, run func(context.Context) (S, error)) Job {
	return Job{
		Name:     name,
		Interval: interval,
		Run: func(ctx context.Context) (map[string]int, error) {
			summary, err := run(ctx)
			return summary.Outcomes(), err
		},
	}
}

// RunStatus is the final state of a job run
type RunStatus string

const (
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusPartial RunStatus = "PARTIAL" // finished, some items failed
	RunStatusFailed  RunStatus = "FAILED"
)

// Trigger tells why a run happened
type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
)

// Run is the record of one job execution
type Run struct {
	ID         uuid.UUID      `json:"id"`
	Job        string         `json:"job"`
	Trigger    Trigger        `json:"trigger"`
	Status     RunStatus      `json:"status"`
	Outcomes   map[string]int `json:"outcomes,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Duration is the wall time of the run
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func statusOf(outcomes map[string]int, err error) RunStatus {
	switch {
	case err != nil:
		return RunStatusFailed
	case outcomes["failed"] > 0:
		return RunStatusPartial
	}
	return RunStatusSuccess
}

// history keeps the last size runs, oldest first
type history struct {
	runs []Run
	size int
}

func (h *history) add(r Run) {
	h.runs = append(h.runs, r)
	if over := len(h.runs) - h.size; over > 0 {
		h.runs = append(h.runs[:0], h.runs[over:]...)
	}
}

// newestFirst returns a copy of the runs, most recent first
func (h *history) newestFirst() []Run {
	out := make([]Run, len(h.runs))
	for i, r := range h.runs {
		out[len(h.runs)-1-i] = r
	}
	return out
}
