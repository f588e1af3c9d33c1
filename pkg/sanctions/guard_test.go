package sanctions

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

func TestCountIsScopedPerGuild(t *testing.T) {
	h := newHarness(t, testConfig())
	h.platform.addMember("u1", 1)
	ctx := context.Background()

	for _, guild := range []string{testGuild, testGuild, "other"} {
		_, err := h.svc.Issue(ctx, IssueRequest{GuildID: guild, ModeratorID: "mod", SubjectID: "u1", Kind: models.KindWarning})
		require.NoError(t, err)
	}
	_, err := h.issue(t, "u1", models.KindMute, "")
	require.NoError(t, err)

	n, err := h.svc.Count(ctx, testGuild, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCeilingRace(t *testing.T) {
	h := newHarness(t, testConfig())
	h.platform.addMember("u1", 1)
	ctx := context.Background()

	// count == ceiling - 1
	for i := 0; i < 2; i++ {
		_, err := h.issue(t, "u1", models.KindWarning, "1h")
		require.NoError(t, err)
	}

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.issue(t, "u1", models.KindWarning, "1h")
		}(i)
	}
	wg.Wait()

	succeeded, refused := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrEscalationLimit):
			refused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, racers-1, refused)

	n, err := h.svc.Count(ctx, testGuild, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("a")
	unlock()
	assert.Empty(t, k.locks)
}
