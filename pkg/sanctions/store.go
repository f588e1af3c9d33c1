package sanctions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// Store is the durable table of outstanding sanctions.
//
// Delete reports whether this call removed the row; deleting an absent id is
// not an error. That is what lets a manual lift and a sweep race safely.
type Store interface {
	Insert(ctx context.Context, s *models.Sanction) error
	Get(ctx context.Context, id string) (*models.Sanction, error)
	Delete(ctx context.Context, id string) (bool, error)
	// Expired returns the guild's sanctions with ExpiresAt <= now.
	Expired(ctx context.Context, guildID string, now time.Time) ([]models.Sanction, error)
	// CountWarnings counts outstanding warnings; an empty guildID counts across guilds.
	CountWarnings(ctx context.Context, guildID, subjectID string) (int, error)
	// ListForSubject returns the subject's sanctions; an empty kind matches all kinds.
	ListForSubject(ctx context.Context, guildID, subjectID string, kind models.SanctionKind) ([]models.Sanction, error)
	ListForGuild(ctx context.Context, guildID string) ([]models.Sanction, error)
}

// MemStore is an in-memory Store. Safe for concurrent use.
type MemStore struct {
	mu   sync.RWMutex
	rows map[string]models.Sanction
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[string]models.Sanction)}
}

func (m *MemStore) Insert(ctx context.Context, s *models.Sanction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.ID] = *s
	return nil
}

func (m *MemStore) Get(ctx context.Context, id string) (*models.Sanction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemStore) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

func (m *MemStore) Expired(ctx context.Context, guildID string, now time.Time) ([]models.Sanction, error) {
	return m.filter(func(s *models.Sanction) bool {
		return s.GuildID == guildID && s.Expired(now)
	}), nil
}

func (m *MemStore) CountWarnings(ctx context.Context, guildID, subjectID string) (int, error) {
	return len(m.filter(func(s *models.Sanction) bool {
		return s.Kind == models.KindWarning && s.SubjectID == subjectID && (guildID == "" || s.GuildID == guildID)
	})), nil
}

func (m *MemStore) ListForSubject(ctx context.Context, guildID, subjectID string, kind models.SanctionKind) ([]models.Sanction, error) {
	return m.filter(func(s *models.Sanction) bool {
		return s.GuildID == guildID && s.SubjectID == subjectID && (kind == "" || s.Kind == kind)
	}), nil
}

func (m *MemStore) ListForGuild(ctx context.Context, guildID string) ([]models.Sanction, error) {
	return m.filter(func(s *models.Sanction) bool { return s.GuildID == guildID }), nil
}

// Len returns the number of outstanding rows
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

// filter returns matching rows ordered by expiry, then id
func (m *MemStore) filter(keep func(*models.Sanction) bool) []models.Sanction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Sanction
	for _, s := range m.rows {
		if keep(&s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out
}
