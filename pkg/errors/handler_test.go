package errors

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRecoverMiddlewareCountsPanics(t *testing.T) {
	h := NewErrorHandler("", nil)
	var panics int
	h.panics = func() { panics++ }

	prev := handler
	handler = h
	defer func() { handler = prev }()

	func() {
		defer RecoverMiddleware()()
		panic("boom")
	}()

	if got := h.count.Load(); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
	if panics != 1 {
		t.Errorf("panics = %d, want 1", panics)
	}
}

func TestGoRecovers(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	Go(func() {
		defer wg.Done()
		panic("worker exploded")
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not finish")
	}
}

func TestTrippedCallsShutdownOnce(t *testing.T) {
	var calls atomic.Int32
	called := make(chan struct{}, 2)
	h := NewErrorHandler("", func() {
		calls.Add(1)
		called <- struct{}{}
	})
	h.limit = 1

	h.IncrementError()
	h.IncrementError()
	h.IncrementError()

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("shutdown was not triggered")
	}
	time.Sleep(20 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("shutdown calls = %d, want 1", got)
	}
}

func TestWindowResetsCount(t *testing.T) {
	h := NewErrorHandler("", nil)
	h.window = 5 * time.Millisecond
	h.start()
	defer h.Stop()

	h.IncrementError()
	deadline := time.Now().Add(time.Second)
	for h.count.Load() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("count was not reset")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	h := NewErrorHandler("", nil)
	h.start()
	h.Stop()
	h.Stop()
}
