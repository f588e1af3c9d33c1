package mod

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	apperrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

const (
	maxListed   = 10
	historySize = 5
)

// warningsCommand creates /warnings
func (m *Module) warningsCommand() *discord.Command {
	return discord.NewCommand(
		"warnings",
		"Lista las sanciones activas y el historial de un usuario",
		"mod",
		m.warningsHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "[STAFF] Usuario a consultar (opcional)",
		},
	).RequiresDatabase()
}

func (m *Module) warningsHandler(ctx *discord.CommandContext) error {
	target := ctx.GetUserOption("usuario")
	if target == nil {
		target = ctx.User()
	}

	// members may always look at themselves
	if target.ID != ctx.User().ID && ctx.Member().Permissions&discordgo.PermissionModerateMembers == 0 &&
		ctx.Member().Permissions&discordgo.PermissionAdministrator == 0 {
		return ctx.ReplyEphemeral("❌ No tienes permisos para ver las sanciones de otro usuario.")
	}

	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}

	guildID := ctx.Interaction.GuildID
	go func() {
		defer apperrors.RecoverMiddleware()()

		c, cancel := context.WithTimeout(ctx.Context, commandTimeout)
		defer cancel()

		embed, err := m.warningsEmbed(c, guildID, target)
		if err != nil {
			logger.Error(fmt.Sprintf("Error consultando sanciones de %s: %v", target.ID, err), "Mod")
			_ = ctx.EditReply("❌ No se pudieron obtener las sanciones. Inténtalo más tarde.")
			return
		}
		if err := ctx.EditReplyEmbed(embed); err != nil {
			logger.Error(fmt.Sprintf("Error enviando sanciones: %v", err), "Mod")
		}
	}()
	return nil
}

// warningsEmbed lists the outstanding sanctions and recent history of target
func (m *Module) warningsEmbed(ctx context.Context, guildID string, target *discordgo.User) (*discordgo.MessageEmbed, error) {
	outstanding, err := m.Sanctions.ListForSubject(ctx, guildID, target.ID, "")
	if err != nil {
		return nil, err
	}
	count, err := m.Service.Count(ctx, guildID, target.ID)
	if err != nil {
		return nil, err
	}
	cfg := m.Settings.GuildConfig(ctx, guildID)

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🔖 Sanciones de %s", target.Username),
		Description: fmt.Sprintf("> 💫 **Advertencias activas:** %d/%d\n> 📋 **Sanciones activas:** %d", count, cfg.MaxWarnings, len(outstanding)),
		Color:       0x3498db,
	}
	if len(outstanding) == 0 {
		embed.Color = 0x2ecc71
	}

	for i, s := range outstanding {
		if i == maxListed {
			embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("… y %d más", len(outstanding)-maxListed)}
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s %s · `%s`", kindEmoji(s.Kind), s.Kind.Label(), s.ID),
			Value: fmt.Sprintf("%s\nExpira <t:%d:R> · por <@%s>", s.Reason, s.ExpiresAt.Unix(), s.ModeratorID),
		})
	}

	if m.History != nil {
		entries, err := m.History.ForSubject(ctx, guildID, target.ID, historySize)
		if err != nil {
			logger.Warn(fmt.Sprintf("Historial no disponible para %s: %v", target.ID, err), "Mod")
		} else if len(entries) > 0 {
			lines := make([]string, 0, len(entries))
			for _, e := range entries {
				lines = append(lines, fmt.Sprintf("<t:%d:d> %s %s", e.RecordedAt.Unix(), e.Kind.Label(), eventLabel(e.Event)))
			}
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "🕒 Historial reciente",
				Value: strings.Join(lines, "\n"),
			})
		}
	}
	return embed, nil
}

func kindEmoji(kind models.SanctionKind) string {
	switch kind {
	case models.KindMute:
		return "🔇"
	case models.KindBan:
		return "🔨"
	default:
		return "⚠️"
	}
}

func eventLabel(e models.HistoryEvent) string {
	switch e {
	case models.EventIssued:
		return "emitido"
	case models.EventExpired:
		return "expirado"
	case models.EventLifted:
		return "levantado"
	case models.EventSubjectGone:
		return "descartado (salió del servidor)"
	case models.EventEscalationRefused:
		return "rechazado por límite"
	default:
		return string(e)
	}
}
