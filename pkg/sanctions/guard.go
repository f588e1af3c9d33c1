package sanctions

import (
	"context"
	"sync"

	"github.com/PancyStudios/PancyModGo/pkg/config"
)

// Guard counts outstanding warnings and decides whether another one is allowed
type Guard struct {
	store   Store
	configs ConfigSource
}

// NewGuard creates a guard over store
func NewGuard(store Store, configs ConfigSource) *Guard {
	return &Guard{store: store, configs: configs}
}

// Count returns the subject's outstanding warnings, scoped per the guild's
// CountScope. Read only.
func (g *Guard) Count(ctx context.Context, guildID, subjectID string) (int, error) {
	cfg := g.configs.GuildConfig(ctx, guildID)
	return g.count(ctx, cfg, guildID, subjectID)
}

func (g *Guard) count(ctx context.Context, cfg config.GuildSanctionConfig, guildID, subjectID string) (int, error) {
	scope := guildID
	if cfg.CountScope == config.ScopeGlobal {
		scope = ""
	}
	n, err := g.store.CountWarnings(ctx, scope, subjectID)
	if err != nil {
		return 0, transient("count warnings", err)
	}
	return n, nil
}

// lockKey is the key warnings for one subject serialize on
func (g *Guard) lockKey(cfg config.GuildSanctionConfig, guildID, subjectID string) string {
	if cfg.CountScope == config.ScopeGlobal {
		return subjectID
	}
	return guildID + "/" + subjectID
}

// keyedMutex serializes work per key. Entries are dropped once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until key is free and returns the matching unlock
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
