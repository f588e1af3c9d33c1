package sanctions

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/membership"
	"github.com/PancyStudios/PancyModGo/pkg/metrics"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

const testGuild = "g1"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	svc      *Service
	store    *MemStore
	history  *MemHistory
	platform *fakePlatform
	snapshot *membership.MemSnapshot
	clock    *clock
	t0       time.Time
}

func newHarness(t *testing.T, cfg config.GuildSanctionConfig, opts ...func(*Deps)) *harness {
	t.Helper()

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	h := &harness{
		store:    NewMemStore(),
		history:  &MemHistory{},
		platform: newFakePlatform(),
		snapshot: membership.NewMemSnapshot(10, time.Hour),
		clock:    &clock{now: t0},
		t0:       t0,
	}

	var seq atomic.Int64
	deps := Deps{
		Store:    h.store,
		Platform: h.platform,
		Configs:  StaticConfig(cfg),
		History:  h.history,
		Snapshot: h.snapshot,
		Metrics:  metrics.Discard(),

		// sweeps drive every test; no fast-path timer is armed
		FastPathHorizon: time.Nanosecond,
		Now:             h.clock.Now,
		NewID:           func() string { return fmt.Sprintf("s%d", seq.Add(1)) },
	}
	for _, opt := range opts {
		opt(&deps)
	}
	h.svc = New(deps)
	t.Cleanup(h.svc.Close)
	return h
}

func (h *harness) issue(t *testing.T, subject string, kind models.SanctionKind, raw string) (string, error) {
	t.Helper()
	return h.svc.Issue(context.Background(), IssueRequest{
		GuildID:     testGuild,
		ModeratorID: "mod",
		SubjectID:   subject,
		Kind:        kind,
		RawDuration: raw,
	})
}
