package sanctions

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// Member is the slice of a guild member the lifecycle needs
type Member struct {
	ID              string
	Roles           []string
	TopRolePosition int
	Permissions     int64
	Bot             bool
}

// Has reports whether the member holds perm or Administrator
func (m *Member) Has(perm int64) bool {
	return m.Permissions&permAdministrator != 0 || m.Permissions&perm == perm
}

// Platform is the Discord side of the lifecycle. Implementations classify
// errors: ErrSubjectGone for unknown members/users, ErrPermissionDenied for
// missing access, anything else wrapped in ErrTransientPlatform.
// Removing an absent role and lifting an absent ban must succeed.
type Platform interface {
	Member(ctx context.Context, guildID, userID string) (*Member, error)
	Members(ctx context.Context, guildID string) ([]Member, error)
	BotMember(ctx context.Context, guildID string) (*Member, error)
	GuildOwnerID(ctx context.Context, guildID string) (string, error)
	// GuildName never fails; it falls back to the id.
	GuildName(ctx context.Context, guildID string) string

	// EnsureRole finds the role by name or creates it. A created role is
	// denied the deny permissions in every channel of the guild.
	EnsureRole(ctx context.Context, guildID, name string, deny int64) (string, error)
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
	Ban(ctx context.Context, guildID, userID, reason string) error
	Unban(ctx context.Context, guildID, userID string) error

	SendDM(ctx context.Context, userID, content string) error
	EnsureChannel(ctx context.Context, guildID, name string) (string, error)
	SendMessage(ctx context.Context, channelID, content string) error
}

// ConfigSource resolves the typed configuration of a guild. It never fails:
// lookups that cannot reach storage fall back to defaults.
type ConfigSource interface {
	GuildConfig(ctx context.Context, guildID string) config.GuildSanctionConfig
}

// StaticConfig serves the same configuration to every guild
type StaticConfig config.GuildSanctionConfig

func (c StaticConfig) GuildConfig(ctx context.Context, guildID string) config.GuildSanctionConfig {
	return config.GuildSanctionConfig(c)
}

// Event is one lifecycle transition, published for external consumers
type Event struct {
	Name     models.HistoryEvent
	Sanction models.Sanction
	ActorID  string
	At       time.Time
}

// Publisher fans lifecycle events out (MQTT in production)
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }
