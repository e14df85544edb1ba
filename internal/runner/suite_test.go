package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/havocd/havoc/internal/core/domain"
	"github.com/havocd/havoc/internal/invoke"
	"github.com/havocd/havoc/internal/policy"
)

// countingInvoker tracks how many invocations run at once.
type countingInvoker struct {
	inflight atomic.Int64
	peak     atomic.Int64
	delay    time.Duration
}

func (c *countingInvoker) Invoke(_ context.Context, req invoke.Request) (domain.CallOutcome, error) {
	n := c.inflight.Add(1)
	defer c.inflight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(c.delay)
	return successOutcome(req.Operation), nil
}

// blockingInvoker parks every invocation until released.
type blockingInvoker struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingInvoker) Invoke(ctx context.Context, req invoke.Request) (domain.CallOutcome, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return successOutcome(req.Operation), nil
	case <-ctx.Done():
		return domain.CallOutcome{}, ctx.Err()
	}
}

func specs(n int) []domain.TestSpec {
	out := make([]domain.TestSpec, n)
	for i := range out {
		out[i] = domain.TestSpec{TestID: "t" + string(rune('a'+i)), Operation: "get_user"}
	}
	return out
}

func TestSuite_OneResultPerSpecInOrder(t *testing.T) {
	inv := &countingInvoker{}
	r := New(inv, storeWith(), policy.NewHeuristic(), fastBackoff(), 42, nil)
	s := NewSuite(r, SuiteConfig{Concurrency: 4})

	in := specs(8)
	results, snap := s.Run(context.Background(), in)

	if len(results) != len(in) {
		t.Fatalf("expected %d results, got %d", len(in), len(results))
	}
	for i, res := range results {
		if res.TestID != in[i].TestID {
			t.Errorf("result %d: expected %s, got %s", i, in[i].TestID, res.TestID)
		}
		if !res.OK {
			t.Errorf("result %d: expected success, got %+v", i, res)
		}
	}
	if snap.TotalTests != 8 || snap.Passed != 8 || snap.Failed != 0 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.SuccessRate != 1.0 {
		t.Errorf("expected success rate 1.0, got %f", snap.SuccessRate)
	}
}

func TestSuite_ConcurrencyBound(t *testing.T) {
	inv := &countingInvoker{delay: 20 * time.Millisecond}
	r := New(inv, storeWith(), policy.NewHeuristic(), fastBackoff(), 42, nil)
	s := NewSuite(r, SuiteConfig{Concurrency: 3})

	s.Run(context.Background(), specs(12))

	if peak := inv.peak.Load(); peak > 3 {
		t.Errorf("concurrency bound violated: peak %d", peak)
	}
}

func TestSuite_ExpectedFailurePasses(t *testing.T) {
	inv := &scriptedInvoker{outcomes: []domain.CallOutcome{failureOutcome("get_user", 404)}}
	r := New(inv, storeWith(), policy.NewHeuristic(), fastBackoff(), 42, nil)
	s := NewSuite(r, SuiteConfig{Concurrency: 1})

	no := false
	results, snap := s.Run(context.Background(), []domain.TestSpec{
		{TestID: "t1", Operation: "get_user", ExpectedSuccess: &no},
	})

	if results[0].OK {
		t.Fatal("expected the call itself to fail")
	}
	if snap.Passed != 1 || snap.Failed != 0 {
		t.Errorf("expected failure to count as passed: %+v", snap)
	}
}

func TestSuite_CancellationDrainsInFlight(t *testing.T) {
	inv := &blockingInvoker{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := New(inv, storeWith(), policy.NewHeuristic(), fastBackoff(), 42, nil)
	s := NewSuite(r, SuiteConfig{Concurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var results []domain.TestResult
	go func() {
		defer close(done)
		results, _ = s.Run(ctx, specs(4))
	}()

	// Cancel after the first test is in flight, then let it finish.
	<-inv.started
	cancel()
	close(inv.release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("suite did not drain after cancellation")
	}

	// The in-flight test completed; the rest never started.
	if !results[0].OK {
		t.Errorf("in-flight test should have drained to success, got %+v", results[0])
	}
	canceled := 0
	for _, res := range results[1:] {
		if res.Reason == domain.ReasonCanceled {
			canceled++
			if res.Attempts != 0 {
				t.Errorf("never-started test should record zero attempts, got %d", res.Attempts)
			}
		}
	}
	if canceled != 3 {
		t.Errorf("expected 3 canceled tests, got %d", canceled)
	}
}

func TestSuite_TestTimeoutMapsToTimeoutClass(t *testing.T) {
	inv := &blockingInvoker{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := New(inv, storeWith(), policy.NewHeuristic(), fastBackoff(), 42, nil)
	s := NewSuite(r, SuiteConfig{Concurrency: 1, TestTimeout: 20 * time.Millisecond})

	results, _ := s.Run(context.Background(), specs(1))

	res := results[0]
	if res.OK {
		t.Fatal("expected timeout failure")
	}
	// The abandoned invocation is classified as a timeout, the playbook
	// has no entry for it, so the decision is refused.
	if res.Reason != domain.ReasonDecisionRefused {
		t.Errorf("expected reason %q, got %q", domain.ReasonDecisionRefused, res.Reason)
	}
	if res.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", res.Attempts)
	}
}
