// Package poll provides the self-rescheduling timer primitives the watchers
// are built on. Both primitives guarantee that at most one invocation of
// their unit of work is in flight at any time: the next run is armed only
// after the previous one returns.
package poll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rqwatch/internal/log"
)

// TickFunc is one unit of work. It returns the delay to wait before the next
// invocation. A negative delay is a contract violation and panics; it is a
// bug in the unit of work, not a runtime condition to recover from.
type TickFunc func(ctx context.Context) time.Duration

// Scheduler repeatedly runs a TickFunc, rescheduling itself after each run
// with the delay that run returned. The first invocation fires immediately.
type Scheduler struct {
	name     string
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewScheduler starts a scheduler for fn. The context is passed through to
// every invocation; stopping the scheduler does not cancel it, so an
// in-flight run is allowed to finish.
func NewScheduler(ctx context.Context, name string, fn TickFunc) *Scheduler {
	s := &Scheduler{
		name: name,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.run(ctx, fn)
	return s
}

func (s *Scheduler) run(ctx context.Context, fn TickFunc) {
	defer close(s.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-timer.C:
		}

		delay := fn(ctx)
		validateDelay(s.name, delay)

		log.Debug("poll").
			Str("scheduler", s.name).
			Dur("next_in", delay).
			Msg("Tick completed")

		// Re-check before arming so a Stop issued during the tick wins
		// over a zero delay.
		select {
		case <-s.stop:
			return
		default:
		}
		timer.Reset(delay)
	}
}

// validateDelay enforces the TickFunc contract. An unusable next-interval
// value is a bug in the unit of work and is fatal.
func validateDelay(name string, delay time.Duration) {
	if delay < 0 {
		panic(fmt.Sprintf("scheduler %q: tick returned negative delay %v", name, delay))
	}
}

// Stop prevents all future invocations, including one already scheduled but
// not yet fired. It does not interrupt an invocation that is in flight.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Stopped reports whether Stop has been called. Units of work use it to
// avoid applying a result that arrived after cancellation.
func (s *Scheduler) Stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Done is closed once the scheduler's loop has exited. Useful in tests.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}
