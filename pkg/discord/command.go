package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// CommandContext is what a command or component handler sees of one
// interaction
type CommandContext struct {
	Context     context.Context
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Client      *ExtendedClient
}

// CommandRunFunc handles one invocation of a command
type CommandRunFunc func(ctx *CommandContext) error

// Command is a guild slash command together with the preconditions the
// router checks before Run
type Command struct {
	Name        string
	Description string
	Category    string
	Options     []*discordgo.ApplicationCommandOption
	Run         CommandRunFunc

	// UserPermissions are required of the invoking member and advertised as
	// the default member permissions.
	UserPermissions int64
	// BotPermissions are checked against the interaction's app permissions.
	BotPermissions int64
	// RequiresDB refuses the command while the database is offline.
	RequiresDB bool
}

// NewCommand creates a command; chain the With* helpers for the rest
func NewCommand(name, description, category string, run CommandRunFunc) *Command {
	return &Command{Name: name, Description: description, Category: category, Run: run}
}

func (c *Command) WithOptions(opts ...*discordgo.ApplicationCommandOption) *Command {
	c.Options = opts
	return c
}

func (c *Command) WithUserPermissions(perms int64) *Command {
	c.UserPermissions = perms
	return c
}

func (c *Command) WithBotPermissions(perms int64) *Command {
	c.BotPermissions = perms
	return c
}

func (c *Command) RequiresDatabase() *Command {
	c.RequiresDB = true
	return c
}

// ToApplicationCommand converts the command to a guild-only Discord
// application command
func (c *Command) ToApplicationCommand() *discordgo.ApplicationCommand {
	contexts := []discordgo.InteractionContextType{discordgo.InteractionContextGuild}
	appCmd := &discordgo.ApplicationCommand{
		Name:        c.Name,
		Description: c.Description,
		Options:     c.Options,
		Contexts:    &contexts,
	}
	if c.UserPermissions != 0 {
		perms := c.UserPermissions
		appCmd.DefaultMemberPermissions = &perms
	}
	return appCmd
}

func (ctx *CommandContext) respond(typ discordgo.InteractionResponseType, data *discordgo.InteractionResponseData) error {
	return ctx.Session.InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{Type: typ, Data: data})
}

func (ctx *CommandContext) message(data *discordgo.InteractionResponseData) error {
	return ctx.respond(discordgo.InteractionResponseChannelMessageWithSource, data)
}

// Reply answers with a public message
func (ctx *CommandContext) Reply(content string) error {
	return ctx.message(&discordgo.InteractionResponseData{Content: content})
}

func (ctx *CommandContext) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	return ctx.message(&discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}})
}

// ReplyEphemeral answers with a message only the invoking user sees
func (ctx *CommandContext) ReplyEphemeral(content string) error {
	return ctx.message(&discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral})
}

func (ctx *CommandContext) ReplyEphemeralEmbed(embed *discordgo.MessageEmbed) error {
	return ctx.message(&discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

// ReplyComponents answers with a public embed followed by component rows
func (ctx *CommandContext) ReplyComponents(embed *discordgo.MessageEmbed, rows ...discordgo.MessageComponent) error {
	return ctx.message(&discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: rows,
	})
}

// ReplyModal opens a modal with one row per text input
func (ctx *CommandContext) ReplyModal(customID, title string, inputs ...*discordgo.TextInput) error {
	rows := make([]discordgo.MessageComponent, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{in}})
	}
	return ctx.respond(discordgo.InteractionResponseModal, &discordgo.InteractionResponseData{
		CustomID:   customID,
		Title:      title,
		Components: rows,
	})
}

// Defer acknowledges the interaction; finish with EditReply within 15 minutes
func (ctx *CommandContext) Defer() error {
	return ctx.respond(discordgo.InteractionResponseDeferredChannelMessageWithSource, nil)
}

// DeferEphemeral is Defer for a reply only the invoking user sees
func (ctx *CommandContext) DeferEphemeral() error {
	return ctx.respond(discordgo.InteractionResponseDeferredChannelMessageWithSource,
		&discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral})
}

func (ctx *CommandContext) edit(edit *discordgo.WebhookEdit) error {
	_, err := ctx.Session.InteractionResponseEdit(ctx.Interaction.Interaction, edit)
	return err
}

// EditReply replaces the deferred placeholder with content
func (ctx *CommandContext) EditReply(content string) error {
	return ctx.edit(&discordgo.WebhookEdit{Content: &content})
}

func (ctx *CommandContext) EditReplyEmbed(embed *discordgo.MessageEmbed) error {
	return ctx.edit(&discordgo.WebhookEdit{Embeds: &[]*discordgo.MessageEmbed{embed}})
}

// ModalValue returns the submitted value of a modal text input
func (ctx *CommandContext) ModalValue(customID string) string {
	return modalValue(ctx.Interaction.ModalSubmitData().Components, customID)
}

// modalValue accepts rows and inputs by value or pointer, since decoded
// submissions and locally built ones differ
func modalValue(components []discordgo.MessageComponent, customID string) string {
	for _, c := range components {
		var row []discordgo.MessageComponent
		switch r := c.(type) {
		case *discordgo.ActionsRow:
			row = r.Components
		case discordgo.ActionsRow:
			row = r.Components
		}
		for _, in := range row {
			var t *discordgo.TextInput
			switch v := in.(type) {
			case *discordgo.TextInput:
				t = v
			case discordgo.TextInput:
				t = &v
			}
			if t != nil && t.CustomID == customID {
				return t.Value
			}
		}
	}
	return ""
}

// SelectedValues returns the values picked in a select menu
func (ctx *CommandContext) SelectedValues() []string {
	return ctx.Interaction.MessageComponentData().Values
}

// option finds name among the options, descending into subcommands
func option(options []*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Name == name {
			return opt
		}
		if found := option(opt.Options, name); found != nil {
			return found
		}
	}
	return nil
}

// GetOption returns the named option, or nil when it was not given
func (ctx *CommandContext) GetOption(name string) *discordgo.ApplicationCommandInteractionDataOption {
	return option(ctx.Interaction.ApplicationCommandData().Options, name)
}

func (ctx *CommandContext) GetStringOption(name string) string {
	if opt := ctx.GetOption(name); opt != nil {
		return opt.StringValue()
	}
	return ""
}

// GetUserOption resolves a user option, nil when absent
func (ctx *CommandContext) GetUserOption(name string) *discordgo.User {
	if opt := ctx.GetOption(name); opt != nil {
		return opt.UserValue(ctx.Session)
	}
	return nil
}

// User returns the user who triggered the interaction
func (ctx *CommandContext) User() *discordgo.User {
	if ctx.Interaction.Member != nil {
		return ctx.Interaction.Member.User
	}
	return ctx.Interaction.User
}

// Member returns the invoking guild member, nil outside guilds
func (ctx *CommandContext) Member() *discordgo.Member {
	return ctx.Interaction.Member
}
