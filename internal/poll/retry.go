package poll

import (
	"context"
	"sync"
	"time"

	"rqwatch/internal/log"
)

// Retry invokes a one-shot operation immediately and retries it on a fixed
// interval until it succeeds once, then stops permanently. Unlike Scheduler
// there is no repeat-forever mode: the first success is final.
type Retry struct {
	name     string
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewRetry starts retrying fn every interval until it returns nil or Stop is
// called.
func NewRetry(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context) error) *Retry {
	r := &Retry{
		name: name,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go r.run(ctx, interval, fn)
	return r
}

func (r *Retry) run(ctx context.Context, interval time.Duration, fn func(ctx context.Context) error) {
	defer close(r.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-timer.C:
		}

		err := fn(ctx)
		if err == nil {
			return
		}
		log.Debug("poll").
			Str("retry", r.name).
			Dur("interval", interval).
			Err(err).
			Msg("Operation failed, will retry")

		select {
		case <-r.stop:
			return
		default:
		}
		timer.Reset(interval)
	}
}

// Stop cancels all future attempts. An attempt that is in flight is allowed
// to finish.
func (r *Retry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}

// Stopped reports whether Stop has been called.
func (r *Retry) Stopped() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

// Done is closed once the retry loop has exited, whether by success or Stop.
func (r *Retry) Done() <-chan struct{} {
	return r.done
}
