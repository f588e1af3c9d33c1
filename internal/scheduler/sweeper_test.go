package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

type staticGuilds []string

func (g staticGuilds) GuildIDs() []string { return g }

type recordingLifecycle struct {
	mu        sync.Mutex
	calls     []string
	failSweep map[string]bool
}

func (r *recordingLifecycle) ReconcileMembers(ctx context.Context, guildID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "members:"+guildID)
	return 0, nil
}

func (r *recordingLifecycle) Sweep(ctx context.Context, guildID string) (sanctions.SweepReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "sweep:"+guildID)
	if r.failSweep[guildID] {
		return sanctions.SweepReport{GuildID: guildID}, errors.New("boom")
	}
	return sanctions.SweepReport{
		GuildID:  guildID,
		Due:      1,
		Outcomes: map[sanctions.Outcome]int{sanctions.OutcomeReversed: 1},
	}, nil
}

func TestTickSweepsEveryGuild(t *testing.T) {
	lc := &recordingLifecycle{failSweep: map[string]bool{"g2": true}}
	s := NewSweeper(lc, staticGuilds{"g1", "g2", "g3"}, time.Minute, 2)

	reports := s.Tick(context.Background())
	require.Len(t, reports, 3)

	assert.Equal(t, "g1", reports[0].GuildID)
	assert.Equal(t, 1, reports[0].Due)
	assert.Equal(t, 0, reports[1].Due)
	assert.Equal(t, 1, reports[2].Outcomes[sanctions.OutcomeReversed])

	calls := append([]string(nil), lc.calls...)
	sort.Strings(calls)
	assert.Equal(t, []string{
		"members:g1", "members:g2", "members:g3",
		"sweep:g1", "sweep:g2", "sweep:g3",
	}, calls)
}

func TestMembersRefreshRunsBeforeSweep(t *testing.T) {
	lc := &recordingLifecycle{}
	s := NewSweeper(lc, staticGuilds{"g1"}, time.Minute, 1)

	s.Tick(context.Background())
	assert.Equal(t, []string{"members:g1", "sweep:g1"}, lc.calls)
}

func TestRunStopsWithContext(t *testing.T) {
	lc := &recordingLifecycle{}
	s := NewSweeper(lc, staticGuilds{"g1"}, 10*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		lc.mu.Lock()
		defer lc.mu.Unlock()
		return len(lc.calls) >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
