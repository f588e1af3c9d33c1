// Package roles holds the staff application flow: the roles a member can
// apply for, the questions each one asks, and the pending choice of every
// member between the select menu and the modal.
package roles

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// SelectionTTL is how long a choice waits for its modal
const SelectionTTL = 15 * time.Minute

// Selections remembers the role each member picked, per guild
type Selections struct {
	cache *expirable.LRU[string, string]
}

// NewSelections creates a store holding at most size pending choices
func NewSelections(size int, ttl time.Duration) *Selections {
	return &Selections{cache: expirable.NewLRU[string, string](size, nil, ttl)}
}

func selectionKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// Select records that userID picked role in guildID, replacing any earlier pick
func (s *Selections) Select(guildID, userID, role string) {
	s.cache.Add(selectionKey(guildID, userID), role)
}

// Peek returns the pending choice without consuming it
func (s *Selections) Peek(guildID, userID string) (string, bool) {
	return s.cache.Peek(selectionKey(guildID, userID))
}

// Take returns and forgets the pending choice
func (s *Selections) Take(guildID, userID string) (string, bool) {
	key := selectionKey(guildID, userID)
	role, ok := s.cache.Get(key)
	if ok {
		s.cache.Remove(key)
	}
	return role, ok
}

// Len returns the number of pending choices
func (s *Selections) Len() int {
	return s.cache.Len()
}
