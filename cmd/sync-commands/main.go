// Command sync-commands publishes the bot's slash command definitions over
// REST, without opening a gateway connection.
//
//	sync-commands [-guild id] [-list | -clean | -dry]
//
// The default action overwrites the registered commands with the current
// definitions in one call, so removed commands disappear too.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"

	"github.com/PancyStudios/PancyModGo/internal/commands"
	"github.com/PancyStudios/PancyModGo/internal/commands/mod"
	"github.com/PancyStudios/PancyModGo/internal/commands/staff"
	"github.com/PancyStudios/PancyModGo/internal/commands/utils"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

const prefix = "SyncCommands"

func main() {
	list := flag.Bool("list", false, "print the commands registered on Discord")
	clean := flag.Bool("clean", false, "delete every registered command")
	dry := flag.Bool("dry", false, "print the local definitions as JSON and exit")
	guildID := flag.String("guild", "", "guild to target instead of the global scope")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)

	err = run(cfg, *guildID, *list, *clean, *dry)
	log.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, guildID string, list, clean, dry bool) error {
	client, err := discord.NewClient(cfg.BotToken, cfg.DevGuildID)
	if err != nil {
		return fmt.Errorf("discord client: %w", err)
	}
	// Only the definitions are needed, the modules never run here.
	commands.RegisterAll(client, commands.Modules{
		Mod:   &mod.Module{},
		Staff: &staff.Module{},
		Utils: &utils.Module{},
	})
	defs := client.CommandHandler.ApplicationCommands()

	if dry {
		out, err := json.MarshalIndent(defs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	me, err := client.Session.User("@me")
	if err != nil {
		return fmt.Errorf("resolve application: %w", err)
	}
	s := client.Session

	switch {
	case list:
		return printRegistered(s, me.ID, guildID)
	case clean:
		return overwrite(s, me.ID, guildID, []*discordgo.ApplicationCommand{})
	default:
		return overwrite(s, me.ID, guildID, defs)
	}
}

func printRegistered(s *discordgo.Session, appID, guildID string) error {
	cmds, err := s.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}
	logger.Info(fmt.Sprintf("📋 %d comandos registrados en %s", len(cmds), scope(guildID)), prefix)
	for _, cmd := range cmds {
		logger.Info(fmt.Sprintf("/%s (%s) %s", cmd.Name, cmd.ID, cmd.Description), prefix)
	}
	return nil
}

func overwrite(s *discordgo.Session, appID, guildID string, cmds []*discordgo.ApplicationCommand) error {
	logger.Info(fmt.Sprintf("🔄 Publicando %d comandos en %s...", len(cmds), scope(guildID)), prefix)
	created, err := s.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
	if err != nil {
		return fmt.Errorf("overwrite commands: %w", err)
	}
	logger.Success(fmt.Sprintf("✅ %d comandos publicados", len(created)), prefix)
	return nil
}

func scope(guildID string) string {
	if guildID == "" {
		return "el ámbito global"
	}
	return "el servidor " + guildID
}
