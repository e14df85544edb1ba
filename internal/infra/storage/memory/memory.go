package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/havocd/havoc/internal/core/domain"
)

// ResultRepo is an in-memory ResultRepository for tests and runs
// without a database configured.
type ResultRepo struct {
	mu      sync.RWMutex
	runs    map[string]*domain.RunRecord
	results map[string][]*domain.TestResult
}

// NewResultRepo creates an empty in-memory repository.
func NewResultRepo() *ResultRepo {
	return &ResultRepo{
		runs:    make(map[string]*domain.RunRecord),
		results: make(map[string][]*domain.TestResult),
	}
}

// SaveRun stores a copy of the run summary.
func (r *ResultRepo) SaveRun(_ context.Context, run *domain.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *run
	r.runs[run.ID] = &cp
	return nil
}

// SaveResult appends a copy of the test result under the run.
func (r *ResultRepo) SaveResult(_ context.Context, runID string, res *domain.TestResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *res
	r.results[runID] = append(r.results[runID], &cp)
	return nil
}

// RecentRuns returns stored runs, newest first.
func (r *ResultRepo) RecentRuns(_ context.Context, limit int) ([]*domain.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.RunRecord, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ResultsForRun returns the results recorded for runID.
func (r *ResultRepo) ResultsForRun(_ context.Context, runID string) ([]*domain.TestResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*domain.TestResult(nil), r.results[runID]...), nil
}
