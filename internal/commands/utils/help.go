package utils

import (
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

const durationHint = "Las duraciones aceptan `s`, `m`, `h` y `d`, por ejemplo `1d 2h`."

// createHelpCommand creates the /utils help subcommand
func createHelpCommand() *discord.Command {
	return discord.NewCommand(
		"help",
		"Muestra información de ayuda",
		"utils",
		helpHandler,
	)
}

func helpHandler(ctx *discord.CommandContext) error {
	return ctx.ReplyEphemeralEmbed(helpEmbed(ctx.Client.CommandHandler.ApplicationCommands()))
}

// helpEmbed lists every registered command and subcommand with its description
func helpEmbed(cmds []*discordgo.ApplicationCommand) *discordgo.MessageEmbed {
	var lines []string
	for _, cmd := range cmds {
		lines = append(lines, helpLines("/"+cmd.Name, cmd.Description, cmd.Options)...)
	}
	sort.Strings(lines)

	return &discordgo.MessageEmbed{
		Title:       "📖 Ayuda de PancyMod",
		Description: strings.Join(lines, "\n") + "\n\n" + durationHint,
		Color:       0x5865F2,
	}
}

func helpLines(path, description string, options []*discordgo.ApplicationCommandOption) []string {
	var nested []string
	for _, opt := range options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionSubCommand, discordgo.ApplicationCommandOptionSubCommandGroup:
			nested = append(nested, helpLines(path+" "+opt.Name, opt.Description, opt.Options)...)
		}
	}
	if len(nested) > 0 {
		return nested
	}
	return []string{"• `" + path + "` - " + description}
}
