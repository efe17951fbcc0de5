package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRetryStopsPermanentlyAfterFirstSuccess(t *testing.T) {
	var count int32

	// Fails twice, then succeeds.
	r := NewRetry(context.Background(), "test", 10*time.Millisecond, func(ctx context.Context) error {
		if atomic.AddInt32(&count, 1) < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	defer r.Stop()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("retry loop did not finish")
	}

	if n := atomic.LoadInt32(&count); n != 3 {
		t.Fatalf("expected exactly 3 invocations, got %d", n)
	}

	// The first success is final; nothing fires afterwards.
	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&count); n != 3 {
		t.Fatalf("invocation fired after success: count=%d", n)
	}
}

func TestRetryImmediateSuccessRunsOnce(t *testing.T) {
	var count int32

	r := NewRetry(context.Background(), "test", 10*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	defer r.Stop()

	<-r.Done()
	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&count); n != 1 {
		t.Fatalf("expected exactly 1 invocation, got %d", n)
	}
}

func TestRetryStopCancelsFutureAttempts(t *testing.T) {
	var count int32
	fired := make(chan struct{}, 1)

	r := NewRetry(context.Background(), "test", 50*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		select {
		case fired <- struct{}{}:
		default:
		}
		return errors.New("always fails")
	})

	<-fired
	r.Stop()
	<-r.Done()

	time.Sleep(120 * time.Millisecond)
	if n := atomic.LoadInt32(&count); n != 1 {
		t.Fatalf("attempt fired after Stop: count=%d", n)
	}
}
