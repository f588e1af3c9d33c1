package membership

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memberSet map[string]struct{}

// MemSnapshot keeps snapshots in process memory. Guild sets expire after ttl
// so a bot that stopped receiving refreshes falls back to Unknown.
type MemSnapshot struct {
	mu   sync.Mutex
	data *expirable.LRU[string, memberSet]
}

var _ Snapshot = (*MemSnapshot)(nil)

// NewMemSnapshot creates a snapshot holding at most maxGuilds guilds
func NewMemSnapshot(maxGuilds int, ttl time.Duration) *MemSnapshot {
	return &MemSnapshot{
		data: expirable.NewLRU[string, memberSet](maxGuilds, nil, ttl),
	}
}

func (s *MemSnapshot) Lookup(ctx context.Context, guildID, userID string) (Presence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.data.Peek(guildID)
	if !ok {
		return Unknown, nil
	}
	if _, ok := set[userID]; ok {
		return Present, nil
	}
	return Absent, nil
}

func (s *MemSnapshot) Add(ctx context.Context, guildID string, userIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.data.Peek(guildID)
	if !ok {
		return nil
	}
	for _, id := range userIDs {
		set[id] = struct{}{}
	}
	return nil
}

func (s *MemSnapshot) Remove(ctx context.Context, guildID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set, ok := s.data.Peek(guildID); ok {
		delete(set, userID)
	}
	return nil
}

func (s *MemSnapshot) Replace(ctx context.Context, guildID string, userIDs []string) error {
	set := make(memberSet, len(userIDs))
	for _, id := range userIDs {
		set[id] = struct{}{}
	}

	s.mu.Lock()
	s.data.Add(guildID, set)
	s.mu.Unlock()
	return nil
}

func (s *MemSnapshot) Size(ctx context.Context, guildID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.data.Peek(guildID)
	if !ok {
		return 0, nil
	}
	return len(set), nil
}
