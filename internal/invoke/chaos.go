package invoke

import (
	"context"
	"fmt"

	"github.com/havocd/havoc/internal/catalog"
	"github.com/havocd/havoc/internal/chaos"
	"github.com/havocd/havoc/internal/core/domain"
	"github.com/havocd/havoc/internal/metrics"
	"github.com/havocd/havoc/internal/playbook"
)

// ChaosInvoker substitutes failures for a configured fraction of calls.
// When a call is spared, it either forwards to the next invoker (a real
// transport) or synthesizes a success payload.
//
// It holds no mutable state: seed and draw index arrive in the Request,
// making a single instance safe for concurrent tests.
type ChaosInvoker struct {
	engine   *chaos.Engine
	catalog  *catalog.Catalog
	playbook *playbook.Store
	rate     float64
	next     Invoker // optional pass-through transport
}

// NewChaosInvoker builds the fault-injecting invoker. next may be nil,
// in which case spared calls produce mocked success outcomes.
func NewChaosInvoker(engine *chaos.Engine, cat *catalog.Catalog, pb *playbook.Store, rate float64, next Invoker) *ChaosInvoker {
	return &ChaosInvoker{
		engine:   engine,
		catalog:  cat,
		playbook: pb,
		rate:     rate,
		next:     next,
	}
}

// Invoke decides inject-or-not for this call, then either fabricates an
// error outcome for a weighted-selected class or lets the call succeed.
func (ci *ChaosInvoker) Invoke(ctx context.Context, req Request) (domain.CallOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.CallOutcome{}, err
	}

	op, ok := ci.catalog.Lookup(req.Operation)
	if !ok {
		return domain.CallOutcome{
			Operation:  req.Operation,
			StatusCode: 404,
			Class:      "404",
			Body: map[string]any{
				"code":    "404",
				"type":    "error",
				"message": fmt.Sprintf("Unknown operation: %s", req.Operation),
			},
			Error: "Unknown operation",
		}, nil
	}

	if !ci.engine.ShouldInject(ci.rate, req.Seed, req.Draw) {
		if ci.next != nil {
			return ci.next.Invoke(ctx, req)
		}
		return ci.engine.BuildSuccessOutcome(op.Name, op.Method, req.Seed, req.Draw+2), nil
	}

	class, err := ci.engine.SelectErrorClass(op.Name, op.Classes(), req.Seed, req.Draw+1)
	if err != nil {
		return domain.CallOutcome{}, err
	}
	metrics.ChaosInjections.WithLabelValues(op.Name, string(class)).Inc()

	// Prefer the playbook's human-readable reason, then the catalog's
	// response description.
	reason := ""
	if entry := ci.playbook.Lookup(class); entry.Reason != "" {
		reason = entry.Reason
	} else if desc, ok := op.ErrorClasses[class]; ok {
		reason = desc
	}

	return ci.engine.BuildErrorOutcome(op.Name, class, reason), nil
}
