package storage

import (
	"context"

	"github.com/havocd/havoc/internal/core/domain"
)

// ResultRepository persists suite runs and their per-test results.
type ResultRepository interface {
	// SaveRun persists the run-level summary.
	SaveRun(ctx context.Context, run *domain.RunRecord) error

	// SaveResult persists one test result under a run.
	SaveResult(ctx context.Context, runID string, res *domain.TestResult) error

	// RecentRuns returns the most recent run summaries, newest first.
	RecentRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error)

	// ResultsForRun returns all test results recorded for a run.
	ResultsForRun(ctx context.Context, runID string) ([]*domain.TestResult, error)
}
