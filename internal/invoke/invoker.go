package invoke

import (
	"context"

	"github.com/havocd/havoc/internal/core/domain"
)

// Request carries one invocation plus the randomness coordinates the
// orchestration loop threaded to it. Draw is the base of a small block
// of draw indices reserved for this call (see DrawsPerCall), so that no
// invoker needs hidden counters of its own.
type Request struct {
	Operation string
	Params    map[string]any
	Seed      int64
	Draw      uint64
}

// DrawsPerCall is how many draw indices one invocation may consume:
// inject decision, error class selection, payload synthesis.
const DrawsPerCall = 3

// Invoker performs one operation call and yields its outcome. Expected
// upstream failures are reported inside the CallOutcome; the error
// return is reserved for invoker-level faults such as a canceled
// context or an unknown operation.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (domain.CallOutcome, error)
}
