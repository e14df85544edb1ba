package domain

import "time"

// TestSpec describes one resilience test to run against an operation.
type TestSpec struct {
	TestID          string         `json:"test_id" yaml:"test_id"`
	Operation       string         `json:"operation" yaml:"operation"`
	Params          map[string]any `json:"params" yaml:"params"`
	ExpectedSuccess *bool          `json:"expected_success,omitempty" yaml:"expected_success"`
}

// TerminalReason distinguishes why a test ended without success.
type TerminalReason string

const (
	// ReasonMaxRetries means the retry budget was exhausted while the
	// playbook still recommended retrying.
	ReasonMaxRetries TerminalReason = "max_retries_exceeded"

	// ReasonDecisionRefused means the policy returned fail before the
	// budget ran out (or the playbook never allowed retrying).
	ReasonDecisionRefused TerminalReason = "decision_refused"

	// ReasonCanceled means the suite or per-test deadline ended the
	// test before a verdict was reached.
	ReasonCanceled TerminalReason = "canceled"
)

// TestResult is the terminal record of one test. It is created once per
// test and never mutated after the test completes.
type TestResult struct {
	TestID        string          `json:"test_id"`
	Operation     string          `json:"operation"`
	OK            bool            `json:"ok"`
	Attempts      int             `json:"attempts"`
	FinalStatus   int             `json:"final_status"`
	Error         string          `json:"error,omitempty"`
	Reason        TerminalReason  `json:"reason,omitempty"`
	DecisionTrail []RetryDecision `json:"decision_trail"`
	Duration      time.Duration   `json:"duration_ns"`
}

// Passed reports whether the result matches the spec's expectation.
// Without an explicit expectation, passing means the call succeeded.
func (r TestResult) Passed(spec TestSpec) bool {
	if spec.ExpectedSuccess != nil {
		return r.OK == *spec.ExpectedSuccess
	}
	return r.OK
}

// RunRecord summarizes one completed suite run for persistence.
type RunRecord struct {
	ID            string    `json:"id" db:"id"`
	StartedAt     time.Time `json:"started_at" db:"started_at"`
	FinishedAt    time.Time `json:"finished_at" db:"finished_at"`
	Seed          int64     `json:"seed" db:"seed"`
	FailureRate   float64   `json:"failure_rate" db:"failure_rate"`
	Total         int       `json:"total" db:"total"`
	Passed        int       `json:"passed" db:"passed"`
	Failed        int       `json:"failed" db:"failed"`
	TotalAttempts int       `json:"total_attempts" db:"total_attempts"`
}
