package events

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	apperrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

const memberTimeout = 15 * time.Second

func (h *handlers) onMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	defer apperrors.RecoverMiddleware()()
	if m.Member == nil || m.User == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), memberTimeout)
	defer cancel()
	if err := h.Lifecycle.MemberJoined(ctx, m.GuildID, m.User.ID, m.User.Bot); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo preparar al nuevo miembro %s en %s: %v", m.User.ID, m.GuildID, err), "Member")
	}
}

func (h *handlers) onMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	defer apperrors.RecoverMiddleware()()
	if m.Member == nil || m.User == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), memberTimeout)
	defer cancel()
	if err := h.Lifecycle.MemberLeft(ctx, m.GuildID, m.User.ID); err != nil {
		logger.Debug(fmt.Sprintf("Snapshot sin actualizar para %s: %v", m.User.ID, err), "Member")
	}
}
