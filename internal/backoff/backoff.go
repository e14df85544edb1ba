package backoff

import (
	"context"
	"math"
	"time"
)

// Scheduler computes bounded exponential delays between attempts.
type Scheduler struct {
	Base       time.Duration
	Multiplier float64
	Cap        time.Duration
}

// Default is tuned for simulated backends: 500ms, 1s, 2s ... capped at 10s.
var Default = Scheduler{
	Base:       500 * time.Millisecond,
	Multiplier: 2.0,
	Cap:        10 * time.Second,
}

// New builds a scheduler from seconds-denominated config values,
// substituting defaults for unset fields.
func New(baseSeconds, capSeconds, multiplier float64) Scheduler {
	s := Default
	if baseSeconds > 0 {
		s.Base = time.Duration(baseSeconds * float64(time.Second))
	}
	if capSeconds > 0 {
		s.Cap = time.Duration(capSeconds * float64(time.Second))
	}
	if multiplier > 0 {
		s.Multiplier = multiplier
	}
	return s
}

// Delay returns the delay before retrying after the given attempt
// (1-based): Base * Multiplier^(attempt-1), capped. Non-decreasing in
// attempt until the cap, constant after.
func (s Scheduler) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(s.Base) * math.Pow(s.Multiplier, float64(attempt-1))
	if d > float64(s.Cap) {
		return s.Cap
	}
	return time.Duration(d)
}

// Wait sleeps for the attempt's delay, honoring cancellation.
func (s Scheduler) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(s.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
