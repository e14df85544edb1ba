package backoff

import (
	"context"
	"testing"
	"time"
)

func TestDelay_Exponential(t *testing.T) {
	s := Scheduler{Base: 1 * time.Second, Multiplier: 2, Cap: 10 * time.Second}

	// Attempt 1: 1s
	if d := s.Delay(1); d != 1*time.Second {
		t.Errorf("expected 1s, got %v", d)
	}
	// Attempt 2: 2s
	if d := s.Delay(2); d != 2*time.Second {
		t.Errorf("expected 2s, got %v", d)
	}
	// Attempt 3: 4s
	if d := s.Delay(3); d != 4*time.Second {
		t.Errorf("expected 4s, got %v", d)
	}
	// Attempt 10: capped at 10s
	if d := s.Delay(10); d != 10*time.Second {
		t.Errorf("expected 10s, got %v", d)
	}
}

func TestDelay_MonotoneThenConstant(t *testing.T) {
	s := Scheduler{Base: 500 * time.Millisecond, Multiplier: 2, Cap: 8 * time.Second}

	prev := time.Duration(0)
	for attempt := 1; attempt <= 20; attempt++ {
		d := s.Delay(attempt)
		if d < prev {
			t.Fatalf("delay decreased at attempt %d: %v < %v", attempt, d, prev)
		}
		if d > s.Cap {
			t.Fatalf("delay exceeded cap at attempt %d: %v", attempt, d)
		}
		prev = d
	}
	if prev != s.Cap {
		t.Errorf("expected delays to settle at cap %v, got %v", s.Cap, prev)
	}
}

func TestDelay_AttemptBelowOne(t *testing.T) {
	s := Scheduler{Base: time.Second, Multiplier: 2, Cap: 10 * time.Second}
	if d := s.Delay(0); d != time.Second {
		t.Errorf("expected base delay for attempt 0, got %v", d)
	}
}

func TestNew_SecondsConversion(t *testing.T) {
	s := New(0.5, 10, 2)
	if s.Base != 500*time.Millisecond {
		t.Errorf("expected 500ms base, got %v", s.Base)
	}
	if s.Cap != 10*time.Second {
		t.Errorf("expected 10s cap, got %v", s.Cap)
	}

	// Unset fields take defaults.
	s = New(0, 0, 0)
	if s != Default {
		t.Errorf("expected defaults, got %+v", s)
	}
}

func TestWait_Completes(t *testing.T) {
	s := Scheduler{Base: time.Millisecond, Multiplier: 2, Cap: 5 * time.Millisecond}
	if err := s.Wait(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWait_Cancellable(t *testing.T) {
	s := Scheduler{Base: time.Minute, Multiplier: 2, Cap: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Wait(ctx, 1)
	}()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancellation")
	}
}
