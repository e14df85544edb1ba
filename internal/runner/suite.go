package runner

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/havocd/havoc/internal/core/domain"
	"github.com/havocd/havoc/internal/metrics"
)

// SuiteConfig bounds suite execution.
type SuiteConfig struct {
	// Concurrency caps simultaneously running tests.
	Concurrency int `yaml:"concurrency"`

	// TestTimeout is the per-test deadline covering all attempts,
	// backoffs, and reasoner calls. Zero disables it.
	TestTimeout time.Duration `yaml:"test_timeout"`
}

// Suite runs a set of tests with bounded concurrency and aggregates
// their metrics. Tests are independent; they share only the read-only
// playbook store and, if configured, one reasoner capability.
type Suite struct {
	runner *Runner
	cfg    SuiteConfig
	log    *slog.Logger
}

// NewSuite creates a suite around the given runner.
func NewSuite(r *Runner, cfg SuiteConfig) *Suite {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Suite{runner: r, cfg: cfg, log: slog.Default()}
}

// Run executes every spec and returns exactly one result per spec, in
// input order. Cancelling ctx stops new tests from starting; in-flight
// tests drain to a terminal state. Tests that never started are
// recorded as canceled with zero attempts.
func (s *Suite) Run(ctx context.Context, specs []domain.TestSpec) ([]domain.TestResult, Snapshot) {
	start := time.Now()
	results := make([]domain.TestResult, len(specs))

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	for i, spec := range specs {
		g.Go(func() error {
			s.runner.metrics.totalTests.Add(1)

			if ctx.Err() != nil {
				results[i] = domain.TestResult{
					TestID:    spec.TestID,
					Operation: spec.Operation,
					Reason:    domain.ReasonCanceled,
					Error:     "suite canceled before test started",
				}
				s.runner.metrics.canceled.Add(1)
				s.runner.metrics.failed.Add(1)
				metrics.TestsTotal.WithLabelValues("canceled").Inc()
				return nil
			}

			tctx := ctx
			if s.cfg.TestTimeout > 0 {
				var cancel context.CancelFunc
				tctx, cancel = context.WithTimeout(ctx, s.cfg.TestTimeout)
				defer cancel()
			}

			res := s.runner.RunTest(tctx, spec)
			results[i] = res

			if res.Passed(spec) {
				s.runner.metrics.passed.Add(1)
				metrics.TestsTotal.WithLabelValues("passed").Inc()
			} else {
				s.runner.metrics.failed.Add(1)
				metrics.TestsTotal.WithLabelValues("failed").Inc()
			}
			return nil
		})
	}

	_ = g.Wait()
	metrics.SuiteDuration.Observe(time.Since(start).Seconds())

	snap := s.runner.metrics.Snapshot()
	s.log.Info("suite finished",
		"total", snap.TotalTests, "passed", snap.Passed, "failed", snap.Failed,
		"attempts", snap.TotalAttempts, "fallbacks", snap.Fallbacks,
		"duration", time.Since(start))
	return results, snap
}
