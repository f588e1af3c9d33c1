package events

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/internal/automod"
	apperrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

const automodTimeout = 10 * time.Second

func (h *handlers) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	defer apperrors.RecoverMiddleware()()
	if h.Automod == nil || m.Message == nil || m.Author == nil || m.GuildID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), automodTimeout)
	defer cancel()
	if _, err := h.Automod.Check(ctx, toMessage(s, m.Message)); err != nil {
		logger.Warn(fmt.Sprintf("Filtro de contenido falló en %s: %v", m.ChannelID, err), "Automod")
	}
}

func toMessage(s *discordgo.Session, m *discordgo.Message) automod.Message {
	return automod.Message{
		ID:          m.ID,
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		ChannelName: channelName(s, m.ChannelID),
		AuthorID:    m.Author.ID,
		AuthorBot:   m.Author.Bot,
		Content:     m.Content,
	}
}

// channelName reads the cached channel name, "" when the state lacks it
func channelName(s *discordgo.Session, channelID string) string {
	if s == nil || s.State == nil {
		return ""
	}
	ch, err := s.State.Channel(channelID)
	if err != nil {
		return ""
	}
	return ch.Name
}
