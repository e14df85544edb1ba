package runner

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/havocd/havoc/internal/backoff"
	"github.com/havocd/havoc/internal/core/domain"
	"github.com/havocd/havoc/internal/invoke"
	"github.com/havocd/havoc/internal/metrics"
	"github.com/havocd/havoc/internal/playbook"
	"github.com/havocd/havoc/internal/policy"
)

// TimeoutClass is the error class assigned when an invocation or
// reasoner call is abandoned at a deadline.
const TimeoutClass domain.ErrorClass = "timeout"

// Runner drives one test through the retry state machine:
// invoke -> evaluate -> consult playbook -> decide -> backoff -> retry,
// until success, a refused decision, or retry budget exhaustion.
//
// The draw counter is the only shared mutable state, and it is advanced
// atomically so concurrent tests draw disjoint index blocks from the
// same seeded stream.
type Runner struct {
	invoker  invoke.Invoker
	playbook *playbook.Store
	policy   policy.Policy
	backoff  backoff.Scheduler
	seed     int64
	draws    atomic.Uint64
	metrics  *RunMetrics
	log      *slog.Logger
}

// New creates a test runner.
func New(inv invoke.Invoker, pb *playbook.Store, pol policy.Policy, sched backoff.Scheduler, seed int64, rm *RunMetrics) *Runner {
	if rm == nil {
		rm = NewRunMetrics()
	}
	return &Runner{
		invoker:  inv,
		playbook: pb,
		policy:   pol,
		backoff:  sched,
		seed:     seed,
		metrics:  rm,
		log:      slog.Default(),
	}
}

// Metrics returns the run-level aggregate the runner feeds.
func (r *Runner) Metrics() *RunMetrics { return r.metrics }

// RunTest executes one test to a terminal state. A result is always
// produced; only configuration problems caught before the suite starts
// can abort a run.
func (r *Runner) RunTest(ctx context.Context, spec domain.TestSpec) domain.TestResult {
	start := time.Now()
	attempt := 1
	usedReasoner := false
	var trail []domain.RetryDecision

	for {
		r.metrics.totalAttempts.Add(1)
		metrics.AttemptsTotal.Inc()

		out := r.invokeOnce(ctx, spec, attempt)

		if out.Success() {
			r.log.Debug("test succeeded",
				"test_id", spec.TestID, "operation", spec.Operation, "attempt", attempt)
			return domain.TestResult{
				TestID:        spec.TestID,
				Operation:     spec.Operation,
				OK:            true,
				Attempts:      attempt,
				FinalStatus:   out.StatusCode,
				DecisionTrail: trail,
				Duration:      time.Since(start),
			}
		}

		class := out.FailureClass()
		entry := r.playbook.Lookup(class)

		rc := domain.RetryContext{
			Operation:  spec.Operation,
			ErrorClass: class,
			Attempt:    attempt,
			MaxRetries: entry.MaxRetries,
			Strategy:   entry,
		}

		decision := r.policy.Decide(ctx, rc)
		trail = append(trail, decision)
		r.recordDecision(decision, &usedReasoner)

		if decision.Action == domain.ActionRetry && attempt < entry.MaxRetries {
			sched := r.backoff
			if entry.BackoffBase > 0 {
				sched.Base = time.Duration(entry.BackoffBase * float64(time.Second))
			}
			metrics.BackoffSeconds.Observe(sched.Delay(attempt).Seconds())

			if err := sched.Wait(ctx, attempt); err != nil {
				r.metrics.canceled.Add(1)
				return domain.TestResult{
					TestID:        spec.TestID,
					Operation:     spec.Operation,
					Attempts:      attempt,
					FinalStatus:   out.StatusCode,
					Error:         out.Error,
					Reason:        domain.ReasonCanceled,
					DecisionTrail: trail,
					Duration:      time.Since(start),
				}
			}
			attempt++
			continue
		}

		// Terminal failure. Budget exhaustion and a refused decision are
		// distinct, user-visible reasons: exhaustion only applies when
		// the playbook wanted to keep retrying but the budget ran out.
		reason := domain.ReasonDecisionRefused
		if entry.Action == domain.ActionRetry && attempt >= entry.MaxRetries {
			reason = domain.ReasonMaxRetries
		}

		r.log.Debug("test failed",
			"test_id", spec.TestID, "operation", spec.Operation,
			"attempt", attempt, "class", class, "reason", reason)

		return domain.TestResult{
			TestID:        spec.TestID,
			Operation:     spec.Operation,
			Attempts:      attempt,
			FinalStatus:   out.StatusCode,
			Error:         out.Error,
			Reason:        reason,
			DecisionTrail: trail,
			Duration:      time.Since(start),
		}
	}
}

// invokeOnce performs one invocation, reserving a block of draw indices
// for it. An abandoned call (deadline, cancellation, invoker fault) is
// mapped to the timeout class so the playbook decides its fate.
func (r *Runner) invokeOnce(ctx context.Context, spec domain.TestSpec, attempt int) domain.CallOutcome {
	draw := r.draws.Add(invoke.DrawsPerCall) - invoke.DrawsPerCall

	out, err := r.invoker.Invoke(ctx, invoke.Request{
		Operation: spec.Operation,
		Params:    spec.Params,
		Seed:      r.seed,
		Draw:      draw,
	})
	if err != nil {
		r.log.Warn("invocation abandoned",
			"test_id", spec.TestID, "operation", spec.Operation,
			"attempt", attempt, "error", err)
		return domain.CallOutcome{
			Operation:  spec.Operation,
			StatusCode: 0,
			Class:      TimeoutClass,
			Error:      err.Error(),
		}
	}
	return out
}

func (r *Runner) recordDecision(d domain.RetryDecision, usedReasoner *bool) {
	r.metrics.policyCalls.Add(1)
	metrics.PolicyDecisions.WithLabelValues(string(d.DecidedBy), string(d.Action)).Inc()

	if d.DecidedBy == domain.DecidedByExternal {
		r.metrics.reasonerCalls.Add(1)
		if !*usedReasoner {
			*usedReasoner = true
			r.metrics.testsWithReasoner.Add(1)
		}
	}
	if d.Fallback {
		r.metrics.fallbacks.Add(1)
		metrics.ReasonerFallbacks.Inc()
	}
}
