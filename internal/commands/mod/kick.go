package mod

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

// kickCommand creates /kick. Kicks are immediate and leave no sanction row.
func (m *Module) kickCommand() *discord.Command {
	return discord.NewCommand(
		"kick",
		"Expulsa a un usuario del servidor",
		"mod",
		m.kickHandler,
	).WithOptions(
		userOption("Usuario a expulsar"),
		reasonOption(),
	).WithUserPermissions(discordgo.PermissionKickMembers).
		WithBotPermissions(discordgo.PermissionKickMembers)
}

func (m *Module) kickHandler(ctx *discord.CommandContext) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}
	if user.ID == ctx.User().ID {
		return ctx.ReplyEphemeral("❌ No puedes expulsarte a ti mismo.")
	}
	guildID, moderatorID, reason := ctx.Interaction.GuildID, ctx.User().ID, ctx.GetStringOption("razon")
	return deferred(ctx, "kick", func(c context.Context) string {
		return m.kick(c, guildID, moderatorID, user.ID, reason)
	})
}

func (m *Module) kick(ctx context.Context, guildID, moderatorID, subjectID, reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = m.Settings.GuildConfig(ctx, guildID).DefaultReason
	}
	if err := m.Kicker.Kick(ctx, guildID, subjectID, reason); err != nil {
		if errors.Is(err, sanctions.ErrSubjectGone) {
			return fmt.Sprintf("ℹ️ <@%s> no está en el servidor.", subjectID)
		}
		return failure(err)
	}
	return fmt.Sprintf("👢 <@%s> ha sido expulsado.\n**Razón:** %s\n**Moderador:** <@%s>", subjectID, reason, moderatorID)
}
