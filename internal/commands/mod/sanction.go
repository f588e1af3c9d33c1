package mod

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	apperrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

func userOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "usuario",
		Description: description,
		Required:    true,
	}
}

func reasonOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "razon",
		Description: "Razón de la sanción",
		MaxLength:   512,
	}
}

func durationOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "duracion",
		Description: "Duración, por ejemplo 30m, 2h, 1d 12h (vacío usa la del servidor)",
	}
}

// issueCommand builds /warn, /mute or /ban
func (m *Module) issueCommand(v verb) *discord.Command {
	return discord.NewCommand(v.issue, v.issueMsg, "mod", m.issueHandler(v.kind)).
		WithOptions(
			userOption("Usuario a sancionar"),
			durationOption(),
			reasonOption(),
		).
		WithUserPermissions(sanctions.ModeratorPermission(v.kind)).
		WithBotPermissions(sanctions.BotPermission(v.kind)).
		RequiresDatabase()
}

// liftCommand builds /unwarn, /unmute or /unban
func (m *Module) liftCommand(v verb) *discord.Command {
	return discord.NewCommand(v.lift, v.liftMsg, "mod", m.liftHandler(v.kind)).
		WithOptions(userOption("Usuario al que levantar la sanción")).
		WithUserPermissions(sanctions.ModeratorPermission(v.kind)).
		WithBotPermissions(sanctions.BotPermission(v.kind)).
		RequiresDatabase()
}

// deferred acknowledges the interaction and finishes work in the background,
// replacing the placeholder with whatever work returns
func deferred(ctx *discord.CommandContext, name string, work func(c context.Context) string) error {
	if err := ctx.Defer(); err != nil {
		return err
	}
	go func() {
		defer apperrors.RecoverMiddleware()()

		c, cancel := context.WithTimeout(ctx.Context, commandTimeout)
		defer cancel()

		if err := ctx.EditReply(work(c)); err != nil {
			logger.Error(fmt.Sprintf("Error editando respuesta de /%s: %v", name, err), "Mod")
		}
	}()
	return nil
}

func (m *Module) issueHandler(kind models.SanctionKind) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("usuario")
		if user == nil {
			return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
		}
		req := sanctions.IssueRequest{
			GuildID:     ctx.Interaction.GuildID,
			ModeratorID: ctx.User().ID,
			SubjectID:   user.ID,
			Kind:        kind,
			RawDuration: ctx.GetStringOption("duracion"),
			Reason:      ctx.GetStringOption("razon"),
		}
		return deferred(ctx, verbFor(kind).issue, func(c context.Context) string {
			return m.issue(c, req)
		})
	}
}

func (m *Module) liftHandler(kind models.SanctionKind) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("usuario")
		if user == nil {
			return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
		}
		guildID, actorID := ctx.Interaction.GuildID, ctx.User().ID
		return deferred(ctx, verbFor(kind).lift, func(c context.Context) string {
			return m.lift(c, guildID, actorID, user.ID, kind)
		})
	}
}

// issue runs one sanction request and returns the reply shown in the channel
func (m *Module) issue(ctx context.Context, req sanctions.IssueRequest) string {
	id, err := m.Service.Issue(ctx, req)
	if err != nil {
		return failure(err)
	}

	var b strings.Builder
	switch req.Kind {
	case models.KindWarning:
		fmt.Fprintf(&b, "⚠️ <@%s> ha sido advertido.", req.SubjectID)
		if n, err := m.Service.Count(ctx, req.GuildID, req.SubjectID); err == nil {
			limit := m.Settings.GuildConfig(ctx, req.GuildID).MaxWarnings
			fmt.Fprintf(&b, " Advertencias activas: **%d/%d**", n, limit)
		}
	case models.KindMute:
		fmt.Fprintf(&b, "🔇 <@%s> ha sido silenciado.", req.SubjectID)
	case models.KindBan:
		fmt.Fprintf(&b, "🔨 <@%s> ha sido baneado.", req.SubjectID)
	}

	if s, err := m.Sanctions.Get(ctx, id); err == nil {
		fmt.Fprintf(&b, "\n**Razón:** %s\n**Expira:** <t:%d:R>", s.Reason, s.ExpiresAt.Unix())
	}
	fmt.Fprintf(&b, "\n**Moderador:** <@%s>\n**Id:** `%s`", req.ModeratorID, id)
	return b.String()
}

// lift removes every outstanding sanction of kind and returns the reply
func (m *Module) lift(ctx context.Context, guildID, actorID, subjectID string, kind models.SanctionKind) string {
	n, err := m.Service.LiftEarly(ctx, guildID, subjectID, kind, actorID)
	if err != nil {
		return failure(err)
	}
	noun := kind.Label()
	switch n {
	case 0:
		return fmt.Sprintf("ℹ️ <@%s> no tiene ningún %s activo.", subjectID, noun)
	case 1:
		return fmt.Sprintf("✅ Se levantó 1 %s de <@%s>.", noun, subjectID)
	default:
		return fmt.Sprintf("✅ Se levantaron %d %ss de <@%s>.", n, noun, subjectID)
	}
}

// failure maps a core error to the text shown to the moderator. Errors that
// are not meant for humans only get a generic message.
func failure(err error) string {
	switch {
	case errors.Is(err, sanctions.ErrEscalationLimit):
		return "⚠️ El usuario ya tiene el máximo de advertencias activas. Se ha registrado en el canal de auditoría."
	case errors.Is(err, sanctions.ErrPermissionDenied):
		return "❌ Permiso denegado: " + detail(err)
	case errors.Is(err, sanctions.ErrValidation):
		return "❌ Datos no válidos: " + detail(err)
	}
	logger.Error(fmt.Sprintf("Error de moderación: %v", err), "Mod")
	return "❌ Ocurrió un error al contactar con Discord o la base de datos. Inténtalo más tarde."
}

// detail strips the sentinel prefix from a public error
func detail(err error) string {
	if !sanctions.Public(err) {
		return "error interno"
	}
	msg := err.Error()
	if _, rest, ok := strings.Cut(msg, ": "); ok {
		return rest
	}
	return msg
}
