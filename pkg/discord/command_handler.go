package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// CommandHandler collects the application command definitions and pushes
// them to Discord once the session is ready
type CommandHandler struct {
	client   *ExtendedClient
	commands []*discordgo.ApplicationCommand
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(client *ExtendedClient) *CommandHandler {
	return &CommandHandler{client: client}
}

// LoadCommands reports what was registered before the gateway opens
func (ch *CommandHandler) LoadCommands() error {
	logger.System(fmt.Sprintf("Comandos cargados: %d definiciones, %d rutas.", len(ch.commands), ch.client.Commands.Size()), "CommandHandler")
	return nil
}

// RegisterCommand routes cmd by name and queues its definition
func (ch *CommandHandler) RegisterCommand(cmd *Command) {
	ch.client.Commands.Set(cmd.Name, cmd)
	ch.commands = append(ch.commands, cmd.ToApplicationCommand())
	logger.Debug("Comando registrado: "+cmd.Name, "CommandHandler")
}

// BuildCommandGroup routes each subcommand as "<name>.<sub>" and returns the
// group definition. perms become the group's default member permissions; each
// subcommand still checks its own.
func (ch *CommandHandler) BuildCommandGroup(name, description string, perms int64, subcommands ...*Command) *discordgo.ApplicationCommand {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(subcommands))
	for _, cmd := range subcommands {
		ch.client.Commands.Set(name+"."+cmd.Name, cmd)
		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		})
	}

	return NewCommand(name, description, "", nil).
		WithOptions(options...).
		WithUserPermissions(perms).
		ToApplicationCommand()
}

// AddGlobalCommand queues a definition built outside RegisterCommand, such as
// a command group
func (ch *CommandHandler) AddGlobalCommand(cmd *discordgo.ApplicationCommand) {
	ch.commands = append(ch.commands, cmd)
}

// ApplicationCommands returns every queued definition
func (ch *CommandHandler) ApplicationCommands() []*discordgo.ApplicationCommand {
	return ch.commands
}

// RegisterCommands overwrites the application commands in one call, so stale
// commands disappear. With a dev guild configured they are scoped to it and
// update instantly; otherwise they are global.
func (ch *CommandHandler) RegisterCommands() {
	guildID := ch.client.DevGuildID
	scope := "globales"
	if guildID != "" {
		scope = "del servidor de desarrollo " + guildID
	}
	logger.Info("🔄 Registrando comandos "+scope+"...", "CommandHandler")

	s := ch.client.Session
	created, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, ch.commands)
	if err != nil {
		logger.Error("Error registrando comandos: "+err.Error(), "CommandHandler")
		return
	}
	logger.Success(fmt.Sprintf("✅ %d comandos registrados.", len(created)), "CommandHandler")
}
