// Package utils provides the /utils command group: latency, health, help and
// runtime statistics.
package utils

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// StatusSource reports the health of the database
type StatusSource interface {
	GetStatus(ctx context.Context) (string, bool)
	Ping(ctx context.Context) (time.Duration, error)
	QueueLen() int
}

// Connection reports whether a transport is up
type Connection interface {
	IsConnected() bool
}

// GuildSanctions lists the outstanding sanctions of a guild
type GuildSanctions interface {
	ListForGuild(ctx context.Context, guildID string) ([]models.Sanction, error)
}

// MemberCounter reports how many members the snapshot holds for a guild
type MemberCounter interface {
	Size(ctx context.Context, guildID string) (int, error)
}

// Module holds the dependencies of the utility commands
type Module struct {
	Database  StatusSource
	MQTT      Connection
	Sanctions GuildSanctions
	Members   MemberCounter
}

// RegisterUtilsCommands registers all utility commands as /utils subcommands
func RegisterUtilsCommands(client *discord.ExtendedClient, m *Module) {
	group := client.CommandHandler.BuildCommandGroup(
		"utils",
		"Comandos de utilidad",
		0,
		m.createPingCommand(),
		m.createStatusCommand(),
		createHelpCommand(),
		m.createStatsCommand(),
	)
	client.CommandHandler.AddGlobalCommand(group)
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}
