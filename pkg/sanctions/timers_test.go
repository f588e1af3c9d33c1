package sanctions

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimersFire(t *testing.T) {
	fired := make(chan string, 1)
	tm := NewTimers(time.Hour, time.Now, func(ctx context.Context, id string) { fired <- id })
	defer tm.Stop()

	assert.True(t, tm.Schedule("s1", time.Now().Add(10*time.Millisecond)))

	select {
	case id := <-fired:
		assert.Equal(t, "s1", id)
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Eventually(t, func() bool { return tm.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestTimersCancel(t *testing.T) {
	var fired atomic.Int32
	tm := NewTimers(time.Hour, time.Now, func(ctx context.Context, id string) { fired.Add(1) })
	defer tm.Stop()

	tm.Schedule("s1", time.Now().Add(20*time.Millisecond))
	assert.True(t, tm.Cancel("s1"))
	assert.False(t, tm.Cancel("s1"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestTimersHorizon(t *testing.T) {
	tm := NewTimers(time.Minute, time.Now, func(ctx context.Context, id string) {})
	defer tm.Stop()

	assert.False(t, tm.Schedule("far", time.Now().Add(time.Hour)))
	assert.Equal(t, 0, tm.Len())
}

func TestTimersStop(t *testing.T) {
	tm := NewTimers(time.Hour, time.Now, func(ctx context.Context, id string) {})
	tm.Schedule("s1", time.Now().Add(time.Minute))
	tm.Stop()

	assert.Equal(t, 0, tm.Len())
	assert.False(t, tm.Schedule("s2", time.Now().Add(time.Minute)))
}
