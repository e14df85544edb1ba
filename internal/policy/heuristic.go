package policy

import (
	"context"
	"fmt"

	"github.com/havocd/havoc/internal/core/domain"
)

// HeuristicPolicy is the always-available deterministic policy: follow
// the playbook's action while retry budget remains.
type HeuristicPolicy struct{}

// NewHeuristic creates the deterministic policy.
func NewHeuristic() *HeuristicPolicy { return &HeuristicPolicy{} }

// Decide returns fail once the attempt count reaches max_retries,
// otherwise mirrors the playbook strategy's action.
func (p *HeuristicPolicy) Decide(_ context.Context, rc domain.RetryContext) domain.RetryDecision {
	if rc.Attempt >= rc.MaxRetries {
		return domain.RetryDecision{
			Action:     domain.ActionFail,
			Reason:     fmt.Sprintf("attempt %d reached retry budget %d", rc.Attempt, rc.MaxRetries),
			Confidence: 1.0,
			DecidedBy:  domain.DecidedByHeuristic,
		}
	}

	if rc.Strategy.Action == domain.ActionRetry {
		return domain.RetryDecision{
			Action:     domain.ActionRetry,
			Reason:     fmt.Sprintf("playbook recommends retry for %s", rc.ErrorClass),
			Confidence: 1.0,
			DecidedBy:  domain.DecidedByHeuristic,
		}
	}

	return domain.RetryDecision{
		Action:     domain.ActionFail,
		Reason:     fmt.Sprintf("playbook action is %s for %s", rc.Strategy.Action, rc.ErrorClass),
		Confidence: 1.0,
		DecidedBy:  domain.DecidedByHeuristic,
	}
}
