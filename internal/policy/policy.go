package policy

import (
	"context"

	"github.com/havocd/havoc/internal/core/domain"
)

// Policy produces a stay/retry verdict for one failed attempt.
//
// Decide never returns an error: a policy that cannot reach a verdict
// must resolve one internally (see ReasonerPolicy's heuristic fallback).
// Retry decisioning must never abort a test run.
type Policy interface {
	Decide(ctx context.Context, rc domain.RetryContext) domain.RetryDecision
}
