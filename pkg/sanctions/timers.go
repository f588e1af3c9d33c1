package sanctions

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/PancyStudios/PancyModGo/pkg/errors"
)

// Timers is the process-local fast path for reversals. Losing it on restart
// is fine: the periodic sweep is authoritative and catches every row.
type Timers struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	horizon time.Duration
	now     func() time.Time
	fire    func(ctx context.Context, id string)
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewTimers creates timers that call fire when a tracked sanction is due.
// Sanctions further away than horizon are left to the sweep.
func NewTimers(horizon time.Duration, now func() time.Time, fire func(ctx context.Context, id string)) *Timers {
	ctx, cancel := context.WithCancel(context.Background())
	return &Timers{
		pending: make(map[string]*time.Timer),
		horizon: horizon,
		now:     now,
		fire:    fire,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Schedule arms a timer for id at the given time, replacing any previous one.
// It reports whether a timer was armed.
func (t *Timers) Schedule(id string, at time.Time) bool {
	wait := at.Sub(t.now())
	if wait > t.horizon || t.ctx.Err() != nil {
		return false
	}
	if wait < 0 {
		wait = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.pending[id]; ok {
		old.Stop()
	}
	var tm *time.Timer
	tm = time.AfterFunc(wait, func() {
		t.mu.Lock()
		if t.pending[id] == tm {
			delete(t.pending, id)
		}
		t.mu.Unlock()

		defer apperrors.RecoverMiddleware()()
		t.fire(t.ctx, id)
	})
	t.pending[id] = tm
	return true
}

// Cancel stops the timer for id. It reports whether one was pending.
func (t *Timers) Cancel(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	tm, ok := t.pending[id]
	if !ok {
		return false
	}
	tm.Stop()
	delete(t.pending, id)
	return true
}

// Len returns the number of armed timers
func (t *Timers) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Stop cancels every pending timer; later Schedule calls are ignored
func (t *Timers) Stop() {
	t.cancel()
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, tm := range t.pending {
		tm.Stop()
		delete(t.pending, id)
	}
}
