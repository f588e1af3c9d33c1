// Package mod provides the moderation commands. Every sanction verb is served
// by the same two handlers, parameterized by sanction kind.
package mod

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

// commandTimeout bounds the work a command does after deferring its reply
const commandTimeout = 30 * time.Second

// Service is the part of the sanction core the commands drive
type Service interface {
	Issue(ctx context.Context, req sanctions.IssueRequest) (string, error)
	LiftEarly(ctx context.Context, guildID, subjectID string, kind models.SanctionKind, actorID string) (int, error)
	Count(ctx context.Context, guildID, subjectID string) (int, error)
}

// Sanctions reads outstanding sanctions
type Sanctions interface {
	Get(ctx context.Context, id string) (*models.Sanction, error)
	ListForSubject(ctx context.Context, guildID, subjectID string, kind models.SanctionKind) ([]models.Sanction, error)
}

// History reads past lifecycle transitions
type History interface {
	ForSubject(ctx context.Context, guildID, subjectID string, limit int) ([]models.SanctionHistoryEntry, error)
}

// Kicker removes members without recording a sanction
type Kicker interface {
	Kick(ctx context.Context, guildID, userID, reason string) error
}

// Settings reads and writes the per-guild overrides
type Settings interface {
	Settings(ctx context.Context, guildID string) (*models.GuildSettings, error)
	Save(ctx context.Context, settings *models.GuildSettings) (*models.GuildSettings, error)
	Reset(ctx context.Context, guildID string) error
	GuildConfig(ctx context.Context, guildID string) config.GuildSanctionConfig
}

// Module holds the dependencies of the moderation commands
type Module struct {
	Service   Service
	Sanctions Sanctions
	History   History
	Kicker    Kicker
	Settings  Settings
}

// verb describes one sanction kind as seen by moderators
type verb struct {
	kind     models.SanctionKind
	issue    string
	lift     string
	issueMsg string
	liftMsg  string
}

var verbs = []verb{
	{
		kind:     models.KindWarning,
		issue:    "warn",
		lift:     "unwarn",
		issueMsg: "Advierte a un usuario",
		liftMsg:  "Retira las advertencias activas de un usuario",
	},
	{
		kind:     models.KindMute,
		issue:    "mute",
		lift:     "unmute",
		issueMsg: "Silencia a un usuario durante un tiempo",
		liftMsg:  "Quita el silencio a un usuario",
	},
	{
		kind:     models.KindBan,
		issue:    "ban",
		lift:     "unban",
		issueMsg: "Banea a un usuario durante un tiempo",
		liftMsg:  "Levanta el baneo de un usuario",
	},
}

func verbFor(kind models.SanctionKind) verb {
	for _, v := range verbs {
		if v.kind == kind {
			return v
		}
	}
	return verb{kind: kind}
}

// RegisterModCommands registers the sanction verbs, /warnings, /kick and the
// /settings group
func RegisterModCommands(client *discord.ExtendedClient, m *Module) {
	for _, v := range verbs {
		client.CommandHandler.RegisterCommand(m.issueCommand(v))
		client.CommandHandler.RegisterCommand(m.liftCommand(v))
	}
	client.CommandHandler.RegisterCommand(m.warningsCommand())
	client.CommandHandler.RegisterCommand(m.kickCommand())

	settings := client.CommandHandler.BuildCommandGroup(
		"settings",
		"Configuración de moderación del servidor",
		discordgo.PermissionManageGuild,
		m.settingsViewCommand(),
		m.settingsSetCommand(),
		m.settingsResetCommand(),
	)
	client.CommandHandler.AddGlobalCommand(settings)
}
