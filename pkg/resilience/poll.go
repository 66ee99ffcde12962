package resilience

import (
	"context"
	"fmt"
	"time"
)

// PollConfig bounds a readiness-polling loop: a predicate checked at a fixed
// interval for at most MaxAttempts checks.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// ScriptReadyPoll returns the polling bounds used while waiting for a vendor
// script global to become available after the script element loads
// (50ms * 100 attempts = 5s max wait).
func ScriptReadyPoll() *PollConfig {
	return &PollConfig{
		Interval:    50 * time.Millisecond,
		MaxAttempts: 100,
	}
}

// FrameURLPoll returns the polling bounds used to watch a challenge frame's
// navigated URL. The loop is unbounded in attempts; the caller's context
// carries the overall deadline.
func FrameURLPoll() *PollConfig {
	return &PollConfig{
		Interval:    2 * time.Second,
		MaxAttempts: 0,
	}
}

// Poll invokes ready at the configured interval until it returns true, the
// attempt bound is exhausted, or ctx is done. The first check happens
// immediately, not after one interval.
func Poll(ctx context.Context, cfg *PollConfig, ready func() bool) error {
	if ready() {
		return nil
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	attempts := 1
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if ready() {
				return nil
			}
			attempts++
			if cfg.MaxAttempts > 0 && attempts >= cfg.MaxAttempts {
				return fmt.Errorf("condition not met after %d attempts", attempts)
			}
		}
	}
}
