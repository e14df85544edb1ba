package runner

import "sync/atomic"

// RunMetrics aggregates counters for one suite run. Increments are
// atomic because tests may run concurrently; the struct is reset per
// run by constructing a new one.
type RunMetrics struct {
	totalTests        atomic.Int64
	passed            atomic.Int64
	failed            atomic.Int64
	totalAttempts     atomic.Int64
	policyCalls       atomic.Int64
	reasonerCalls     atomic.Int64
	fallbacks         atomic.Int64
	testsWithReasoner atomic.Int64
	canceled          atomic.Int64
}

// NewRunMetrics creates an empty aggregate for one run.
func NewRunMetrics() *RunMetrics { return &RunMetrics{} }

// Snapshot is an immutable copy of the counters plus derived rates.
type Snapshot struct {
	TotalTests        int64   `json:"total_tests"`
	Passed            int64   `json:"passed"`
	Failed            int64   `json:"failed"`
	Canceled          int64   `json:"canceled"`
	TotalAttempts     int64   `json:"total_attempts"`
	PolicyCalls       int64   `json:"policy_calls"`
	ReasonerCalls     int64   `json:"reasoner_calls"`
	Fallbacks         int64   `json:"fallbacks"`
	TestsWithReasoner int64   `json:"tests_with_reasoner"`
	SuccessRate       float64 `json:"success_rate"`
	AvgAttempts       float64 `json:"avg_attempts_per_test"`
	ReasonerRate      float64 `json:"reasoner_participation_rate"`
}

// Snapshot reads the counters and computes derived rates.
func (m *RunMetrics) Snapshot() Snapshot {
	s := Snapshot{
		TotalTests:        m.totalTests.Load(),
		Passed:            m.passed.Load(),
		Failed:            m.failed.Load(),
		Canceled:          m.canceled.Load(),
		TotalAttempts:     m.totalAttempts.Load(),
		PolicyCalls:       m.policyCalls.Load(),
		ReasonerCalls:     m.reasonerCalls.Load(),
		Fallbacks:         m.fallbacks.Load(),
		TestsWithReasoner: m.testsWithReasoner.Load(),
	}
	if s.TotalTests > 0 {
		s.SuccessRate = float64(s.Passed) / float64(s.TotalTests)
		s.AvgAttempts = float64(s.TotalAttempts) / float64(s.TotalTests)
		s.ReasonerRate = float64(s.TestsWithReasoner) / float64(s.TotalTests)
	}
	return s
}
