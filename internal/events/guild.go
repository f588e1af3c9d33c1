package events

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	apperrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// freshJoin is how recent JoinedAt must be for a GuildCreate to count as
// the bot being added rather than the guild becoming available again
const freshJoin = 30 * time.Second

const reconcileTimeout = 2 * time.Minute

func (h *handlers) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	defer apperrors.RecoverMiddleware()()

	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()
	n, err := h.Lifecycle.ReconcileMembers(ctx, g.ID)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo sincronizar miembros de %s: %v", g.ID, err), "Guild")
	} else if n > 0 {
		logger.Info(fmt.Sprintf("Rol de nuevo miembro asignado a %d usuarios en %s", n, g.Name), "Guild")
	}

	if time.Since(g.JoinedAt) > freshJoin {
		return
	}
	logger.Info(fmt.Sprintf("➕ Bot agregado a servidor: %s (ID: %s)", g.Name, g.ID), "Guild")

	if g.SystemChannelID == "" {
		return
	}
	if _, err := s.ChannelMessageSendEmbed(g.SystemChannelID, welcomeEmbed()); err != nil {
		logger.Error(fmt.Sprintf("Error enviando mensaje de bienvenida: %v", err), "Guild")
	}
}

func (h *handlers) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		logger.Warn(fmt.Sprintf("Servidor %s no disponible temporalmente", g.ID), "Guild")
		return
	}
	logger.Info(fmt.Sprintf("➖ Bot removido del servidor ID: %s", g.ID), "Guild")
}

func welcomeEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "¡Gracias por agregarme! 🎉",
		Description: "Hola, soy **PancyMod**. Usa `/help` para ver todos mis comandos.",
		Color:       0x00ff00,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🔧 Sanciones", Value: "`/warn`, `/mute` y `/ban`, con duración opcional", Inline: true},
			{Name: "⚙️ Ajustes", Value: "Configura los límites con `/settings`", Inline: true},
			{Name: "❓ Ayuda", Value: "Usa `/help` para más información", Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Los registros se envían al canal de logs configurado."},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
