// Package discord provides the Discord bot client and related structures.
// It wraps discordgo with command, component and event routing, and adapts
// the session to the sanction lifecycle.
package discord

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	apperrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

func init() {
	discordgo.Logger = func(level int, caller int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		if level <= discordgo.LogError {
			logger.Error(msg, "DiscordGo")
			return
		}
		logger.Debug(msg, "DiscordGo")
	}
}

// Gateway intents the moderation core needs
const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsMessageContent

// ExtendedClient wraps discordgo.Session with command, component and event
// routing
type ExtendedClient struct {
	Session        *discordgo.Session
	Commands       *CommandCollection
	Components     *ComponentCollection
	CommandHandler *CommandHandler
	EventHandler   *EventHandler
	StartTime      time.Time
	DevGuildID     string

	// DBReady gates commands marked RequiresDatabase. Nil means always ready.
	DBReady func() bool

	ready atomic.Bool
}

// NewClient creates a client for token. Commands are registered on
// devGuildID only when it is set.
func NewClient(token, devGuildID string) (*ExtendedClient, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = intents
	session.StateEnabled = true
	session.LogLevel = discordgo.LogWarning

	c := &ExtendedClient{
		Session:    session,
		Commands:   NewCommandCollection(),
		Components: NewComponentCollection(),
		DevGuildID: devGuildID,
	}
	c.CommandHandler = NewCommandHandler(c)
	c.EventHandler = NewEventHandler(c)
	return c, nil
}

// Start registers the interaction router and opens the gateway
func (c *ExtendedClient) Start() error {
	if err := c.CommandHandler.LoadCommands(); err != nil {
		return fmt.Errorf("load commands: %w", err)
	}
	if err := c.EventHandler.LoadEvents(); err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	c.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		c.ready.Store(true)
		logger.Success("Bot conectado como: "+r.User.Username, "Client")
		c.CommandHandler.RegisterCommands()
	})
	c.Session.AddHandler(c.handleInteraction)

	c.StartTime = time.Now()
	return c.Session.Open()
}

// Stop removes the event handlers and closes the gateway
func (c *ExtendedClient) Stop() error {
	c.ready.Store(false)
	c.EventHandler.RemoveAll()
	if c.Session == nil {
		return nil
	}
	return c.Session.Close()
}

// IsReady reports whether Ready has been received since Start
func (c *ExtendedClient) IsReady() bool {
	return c.ready.Load()
}

func (c *ExtendedClient) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer apperrors.RecoverMiddleware()()

	ctx := &CommandContext{
		Context:     context.Background(),
		Session:     s,
		Interaction: i,
		Client:      c,
	}
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		c.runCommand(ctx)
	case discordgo.InteractionMessageComponent:
		c.runComponent(ctx, i.MessageComponentData().CustomID)
	case discordgo.InteractionModalSubmit:
		c.runComponent(ctx, i.ModalSubmitData().CustomID)
	}
}

func (c *ExtendedClient) runCommand(ctx *CommandContext) {
	name := commandName(ctx.Interaction.ApplicationCommandData())
	cmd, ok := c.Commands.Get(name)
	if !ok {
		logger.Warn("Comando no encontrado: "+name, "Client")
		return
	}
	if msg := c.precondition(cmd, ctx); msg != "" {
		_ = ctx.ReplyEphemeral(msg)
		return
	}
	if err := cmd.Run(ctx); err != nil {
		logger.Error(fmt.Sprintf("Error ejecutando /%s: %v", name, err), "Client")
	}
}

// precondition returns the refusal shown to the user, or "" when cmd may run
func (c *ExtendedClient) precondition(cmd *Command, ctx *CommandContext) string {
	member := ctx.Member()
	switch {
	case ctx.Interaction.GuildID == "" || member == nil:
		return "❌ Este comando solo puede usarse en un servidor."
	case cmd.UserPermissions != 0 && !hasPermission(member.Permissions, cmd.UserPermissions):
		return "❌ No tienes permisos para usar este comando."
	case cmd.BotPermissions != 0 && !hasPermission(ctx.Interaction.AppPermissions, cmd.BotPermissions):
		return "❌ No tengo los permisos necesarios para ejecutar este comando."
	case cmd.RequiresDB && c.DBReady != nil && !c.DBReady():
		return "⚠️ La base de datos no está disponible. Inténtalo más tarde."
	}
	return ""
}

func (c *ExtendedClient) runComponent(ctx *CommandContext, customID string) {
	fn, ok := c.Components.Get(customID)
	if !ok {
		logger.Warn("Componente sin handler: "+customID, "Client")
		return
	}
	if err := fn(ctx); err != nil {
		logger.Error(fmt.Sprintf("Error en el componente %s: %v", customID, err), "Client")
	}
}

func hasPermission(have, want int64) bool {
	return have&discordgo.PermissionAdministrator != 0 || have&want == want
}

// GuildCount returns the number of guilds in the session state
func (c *ExtendedClient) GuildCount() int {
	return len(c.GuildIDs())
}

// GuildIDs returns the ids of every guild in the session state
func (c *ExtendedClient) GuildIDs() []string {
	if c.Session == nil || c.Session.State == nil {
		return nil
	}
	st := c.Session.State
	st.RLock()
	defer st.RUnlock()
	ids := make([]string, 0, len(st.Guilds))
	for _, g := range st.Guilds {
		ids = append(ids, g.ID)
	}
	return ids
}
