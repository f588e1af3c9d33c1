package sanctions

import (
	"context"
	"fmt"
	"sync"

	"github.com/PancyStudios/PancyModGo/pkg/config"
)

// fakePlatform is an in-memory guild. Members absent from the map are gone.
type fakePlatform struct {
	mu sync.Mutex

	ownerID  string
	bot      Member
	members  map[string]*Member
	roles    map[string]string // name -> id
	banned   map[string]bool
	channels map[string]string // name -> id

	dms      []string // "user: content"
	messages []string // "channel: content"
	calls    map[string]int

	failDM      bool
	failChannel bool
	failRemove  error
	failLookup  error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		ownerID: "owner",
		bot:     Member{ID: "bot", TopRolePosition: 10, Permissions: permAdministrator, Bot: true},
		members: map[string]*Member{
			"owner": {ID: "owner", TopRolePosition: 20, Permissions: permAdministrator},
			"mod":   {ID: "mod", TopRolePosition: 5, Permissions: ModeratorPermission("warning") | ModeratorPermission("ban")},
		},
		roles:    make(map[string]string),
		banned:   make(map[string]bool),
		channels: make(map[string]string),
		calls:    make(map[string]int),
	}
}

func (f *fakePlatform) addMember(id string, position int, roles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[id] = &Member{ID: id, TopRolePosition: position, Roles: roles}
}

func (f *fakePlatform) removeMember(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members, id)
}

// deleteRole drops a role from the guild and from every member holding it
func (f *fakePlatform) deleteRole(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.roles[name]
	delete(f.roles, name)
	for _, m := range f.members {
		kept := m.Roles[:0]
		for _, r := range m.Roles {
			if r != id {
				kept = append(kept, r)
			}
		}
		m.Roles = kept
	}
}

func (f *fakePlatform) hasRole(userID, roleID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[userID]
	if !ok {
		return false
	}
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

func (f *fakePlatform) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[call]
}

func (f *fakePlatform) dmCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dms)
}

func (f *fakePlatform) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakePlatform) Member(ctx context.Context, guildID, userID string) (*Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Member"]++
	if f.failLookup != nil {
		return nil, f.failLookup
	}
	m, ok := f.members[userID]
	if !ok {
		return nil, fmt.Errorf("unknown member %s: %w", userID, ErrSubjectGone)
	}
	cp := *m
	return &cp, nil
}

func (f *fakePlatform) Members(ctx context.Context, guildID string) ([]Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Member, 0, len(f.members))
	for _, m := range f.members {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakePlatform) BotMember(ctx context.Context, guildID string) (*Member, error) {
	b := f.bot
	return &b, nil
}

func (f *fakePlatform) GuildOwnerID(ctx context.Context, guildID string) (string, error) {
	return f.ownerID, nil
}

func (f *fakePlatform) GuildName(ctx context.Context, guildID string) string {
	return "Guild " + guildID
}

func (f *fakePlatform) EnsureRole(ctx context.Context, guildID, name string, deny int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.roles[name]
	if !ok {
		id = "role-" + name
		f.roles[name] = id
	}
	return id, nil
}

func (f *fakePlatform) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["AddRole"]++
	m, ok := f.members[userID]
	if !ok {
		return ErrSubjectGone
	}
	m.Roles = append(m.Roles, roleID)
	return nil
}

func (f *fakePlatform) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["RemoveRole"]++
	if f.failRemove != nil {
		return f.failRemove
	}
	m, ok := f.members[userID]
	if !ok {
		return ErrSubjectGone
	}
	kept := m.Roles[:0]
	for _, r := range m.Roles {
		if r != roleID {
			kept = append(kept, r)
		}
	}
	m.Roles = kept
	return nil
}

func (f *fakePlatform) Ban(ctx context.Context, guildID, userID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Ban"]++
	f.banned[userID] = true
	delete(f.members, userID)
	return nil
}

func (f *fakePlatform) Unban(ctx context.Context, guildID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Unban"]++
	delete(f.banned, userID)
	return nil
}

func (f *fakePlatform) SendDM(ctx context.Context, userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["SendDM"]++
	if f.failDM {
		return fmt.Errorf("cannot send messages to this user")
	}
	f.dms = append(f.dms, userID+": "+content)
	return nil
}

func (f *fakePlatform) EnsureChannel(ctx context.Context, guildID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failChannel {
		return "", fmt.Errorf("missing access: %w", ErrPermissionDenied)
	}
	id, ok := f.channels[name]
	if !ok {
		id = "chan-" + name
		f.channels[name] = id
	}
	return id, nil
}

func (f *fakePlatform) SendMessage(ctx context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, channelID+": "+content)
	return nil
}

func testConfig() config.GuildSanctionConfig {
	cfg := config.DefaultGuildConfig()
	cfg.MaxWarnings = 3
	return cfg
}
