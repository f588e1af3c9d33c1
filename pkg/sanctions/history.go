package sanctions

import (
	"context"
	"sync"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// History is the append-only log of sanction lifecycle events.
// It is separate from Store: resolving a sanction still deletes its row.
type History interface {
	Append(ctx context.Context, e models.SanctionHistoryEntry) error
	ForSubject(ctx context.Context, guildID, subjectID string, limit int) ([]models.SanctionHistoryEntry, error)
}

// MemHistory keeps history in memory, newest last
type MemHistory struct {
	mu      sync.Mutex
	entries []models.SanctionHistoryEntry
}

var _ History = (*MemHistory)(nil)

func (h *MemHistory) Append(ctx context.Context, e models.SanctionHistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	return nil
}

// ForSubject returns up to limit entries, newest first. limit <= 0 returns all.
func (h *MemHistory) ForSubject(ctx context.Context, guildID, subjectID string, limit int) ([]models.SanctionHistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []models.SanctionHistoryEntry
	for i := len(h.entries) - 1; i >= 0; i-- {
		e := h.entries[i]
		if e.GuildID != guildID || e.SubjectID != subjectID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Events returns every recorded event name in order
func (h *MemHistory) Events() []models.HistoryEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.HistoryEvent, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Event
	}
	return out
}
