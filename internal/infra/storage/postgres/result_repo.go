package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/havocd/havoc/internal/core/domain"
)

// ResultRepo implements storage.ResultRepository using PostgreSQL.
type ResultRepo struct {
	db *DB
}

// NewResultRepo creates a PostgreSQL result repository.
func NewResultRepo(db *DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// SaveRun persists the run-level summary.
func (r *ResultRepo) SaveRun(ctx context.Context, run *domain.RunRecord) error {
	query := `
		INSERT INTO runs (id, started_at, finished_at, seed, failure_rate, total, passed, failed, total_attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.StartedAt, run.FinishedAt, run.Seed, run.FailureRate,
		run.Total, run.Passed, run.Failed, run.TotalAttempts,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// SaveResult persists one test result, serializing its decision trail
// as JSONB for later audit.
func (r *ResultRepo) SaveResult(ctx context.Context, runID string, res *domain.TestResult) error {
	trail, err := json.Marshal(res.DecisionTrail)
	if err != nil {
		return fmt.Errorf("failed to encode decision trail: %w", err)
	}

	query := `
		INSERT INTO test_results (id, run_id, test_id, operation, ok, attempts, final_status, error_msg, reason, decision_trail, duration_ns)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.ExecContext(ctx, query,
		uuid.New().String(), runID, res.TestID, res.Operation,
		res.OK, res.Attempts, res.FinalStatus, res.Error, string(res.Reason),
		trail, int64(res.Duration),
	)
	if err != nil {
		return fmt.Errorf("failed to save test result: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent run summaries, newest first.
func (r *ResultRepo) RecentRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT id, started_at, finished_at, seed, failure_rate, total, passed, failed, total_attempts
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	var rows []domain.RunRecord
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	out := make([]*domain.RunRecord, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

// ResultsForRun returns all test results recorded for a run.
func (r *ResultRepo) ResultsForRun(ctx context.Context, runID string) ([]*domain.TestResult, error) {
	query := `
		SELECT test_id, operation, ok, attempts, final_status, error_msg, reason, decision_trail, duration_ns
		FROM test_results
		WHERE run_id = $1
		ORDER BY test_id
	`

	type row struct {
		TestID      string `db:"test_id"`
		Operation   string `db:"operation"`
		OK          bool   `db:"ok"`
		Attempts    int    `db:"attempts"`
		FinalStatus int    `db:"final_status"`
		ErrorMsg    string `db:"error_msg"`
		Reason      string `db:"reason"`
		Trail       []byte `db:"decision_trail"`
		DurationNS  int64  `db:"duration_ns"`
	}

	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	out := make([]*domain.TestResult, 0, len(rows))
	for _, rw := range rows {
		res := &domain.TestResult{
			TestID:      rw.TestID,
			Operation:   rw.Operation,
			OK:          rw.OK,
			Attempts:    rw.Attempts,
			FinalStatus: rw.FinalStatus,
			Error:       rw.ErrorMsg,
			Reason:      domain.TerminalReason(rw.Reason),
			Duration:    time.Duration(rw.DurationNS),
		}
		if len(rw.Trail) > 0 {
			if err := json.Unmarshal(rw.Trail, &res.DecisionTrail); err != nil {
				return nil, fmt.Errorf("failed to decode decision trail for %s: %w", rw.TestID, err)
			}
		}
		out = append(out, res)
	}
	return out, nil
}
