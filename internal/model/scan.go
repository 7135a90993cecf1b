package model

import (
	"time"

	"github.com/google/uuid"
)

// ScanOutcome summarizes how a company scan ended.
type ScanOutcome string

// Scan outcomes.
const (
	OutcomeLeakFound ScanOutcome = "leak_found"
	OutcomeClean     ScanOutcome = "clean"
	OutcomeSkipped   ScanOutcome = "skipped"
	OutcomeFailed    ScanOutcome = "failed"
)

// ScanRun carries the transient state of one company scan through the pipeline.
type ScanRun struct {
	// ID identifies the run in logs and in the scan run log.
	ID string

	// Company is the monitored organization.
	Company string

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time

	// Candidates is the deduplicated candidate URL set.
	Candidates []string

	// Fetched counts candidates that returned content.
	Fetched int

	// Leaks holds matched records in completion order.
	Leaks []*LeakRecord

	// Outcome is set when the run finishes.
	Outcome ScanOutcome

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string
}

// NewScanRun starts a run for company at now.
func NewScanRun(company string, now time.Time) *ScanRun {
	return &ScanRun{
		ID:        uuid.NewString(),
		Company:   company,
		StartedAt: now,
	}
}

// LeakFound reports whether at least one leak record was collected.
func (r *ScanRun) LeakFound() bool {
	return len(r.Leaks) > 0
}

// Duration returns how long the run took, or zero while running.
func (r *ScanRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
