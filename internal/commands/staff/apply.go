// Package staff provides /apply, the staff application form. A member picks a
// role in a select menu, answers a modal and the answers are posted to the
// applications channel.
package staff

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/internal/roles"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

const (
	componentPrefix = "apply"
	selectID        = componentPrefix + ":select"
	formID          = componentPrefix + ":form"
)

// Poster delivers applications to a guild channel
type Poster interface {
	EnsureChannel(ctx context.Context, guildID, name string) (string, error)
	SendMessage(ctx context.Context, channelID, content string) error
}

// Module holds the dependencies of /apply
type Module struct {
	Selections *roles.Selections
	Poster     Poster
}

// RegisterStaffCommands registers /apply and its select menu and modal
func RegisterStaffCommands(client *discord.ExtendedClient, m *Module) {
	cmd := discord.NewCommand(
		"apply",
		"Publica el formulario de solicitud para el equipo del servidor",
		"staff",
		m.applyHandler,
	).WithUserPermissions(discordgo.PermissionManageGuild)

	client.CommandHandler.RegisterCommand(cmd)
	client.Components.Set(componentPrefix, m.componentHandler)
}

func (m *Module) applyHandler(ctx *discord.CommandContext) error {
	return ctx.ReplyComponents(applicationEmbed(), roleMenu())
}

func applicationEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "¡Buscamos miembros para el equipo del servidor!",
		Description: "Elige el rol al que quieres postularte. Las solicitudes se revisan en un plazo de 2 días.",
		Color:       0x696969,
	}
}

func roleMenu() discordgo.ActionsRow {
	options := make([]discordgo.SelectMenuOption, 0, len(roles.Catalog))
	for _, r := range roles.Catalog {
		options = append(options, discordgo.SelectMenuOption{Label: r.Label, Value: r.Value})
	}
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    selectID,
			Placeholder: "Elige un rol",
			Options:     options,
		},
	}}
}

func (m *Module) componentHandler(ctx *discord.CommandContext) error {
	switch ctx.Interaction.Type {
	case discordgo.InteractionMessageComponent:
		if ctx.Interaction.MessageComponentData().CustomID == selectID {
			return m.onSelect(ctx)
		}
	case discordgo.InteractionModalSubmit:
		if ctx.Interaction.ModalSubmitData().CustomID == formID {
			return m.onSubmit(ctx)
		}
	}
	return nil
}

// onSelect remembers the chosen role and opens the questions modal
func (m *Module) onSelect(ctx *discord.CommandContext) error {
	values := ctx.SelectedValues()
	if len(values) == 0 {
		return ctx.ReplyEphemeral("❌ No se pudo obtener el rol elegido.")
	}
	role, ok := roles.Lookup(values[0])
	if !ok {
		return ctx.ReplyEphemeral("❌ Ese rol ya no está disponible.")
	}

	m.Selections.Select(ctx.Interaction.GuildID, ctx.User().ID, role.Value)
	return ctx.ReplyModal(formID, "Solicitud: "+role.Label, textInputs(role.Value)...)
}

func textInputs(role string) []*discordgo.TextInput {
	questions := roles.Questions(role)
	inputs := make([]*discordgo.TextInput, 0, len(questions))
	for _, q := range questions {
		inputs = append(inputs, &discordgo.TextInput{
			CustomID:    q.ID,
			Label:       q.Label,
			Style:       discordgo.TextInputShort,
			Placeholder: q.Placeholder,
			Required:    true,
			MaxLength:   200,
		})
	}
	return inputs
}

// onSubmit posts the answers for the role the member picked earlier
func (m *Module) onSubmit(ctx *discord.CommandContext) error {
	guildID, userID := ctx.Interaction.GuildID, ctx.User().ID
	value, ok := m.Selections.Take(guildID, userID)
	if !ok {
		return ctx.ReplyEphemeral("⌛ Tu selección ha caducado. Vuelve a elegir un rol.")
	}
	role, _ := roles.Lookup(value)

	answers := make(map[string]string)
	for _, q := range roles.Questions(role.Value) {
		answers[q.ID] = ctx.ModalValue(q.ID)
	}

	if err := m.post(ctx.Context, guildID, roles.Format(role, userID, answers)); err != nil {
		logger.Error(fmt.Sprintf("No se pudo publicar la solicitud de %s: %v", userID, err), "Staff")
		return ctx.ReplyEphemeral("❌ No se pudo enviar tu solicitud. Inténtalo de nuevo más tarde.")
	}
	return ctx.ReplyEphemeral(fmt.Sprintf("✅ Has enviado tu solicitud para **%s**.", role.Label))
}

func (m *Module) post(ctx context.Context, guildID, content string) error {
	channelID, err := m.Poster.EnsureChannel(ctx, guildID, roles.ApplicationChannel)
	if err != nil {
		return err
	}
	return m.Poster.SendMessage(ctx, channelID, strings.TrimSpace(content))
}
