// Package events wires gateway events into the moderation core.
package events

import (
	"context"

	"github.com/PancyStudios/PancyModGo/internal/automod"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

// Lifecycle keeps membership state in step with the gateway
type Lifecycle interface {
	ReconcileMembers(ctx context.Context, guildID string) (int, error)
	MemberJoined(ctx context.Context, guildID, userID string, bot bool) error
	MemberLeft(ctx context.Context, guildID, userID string) error
}

// Automod inspects guild messages
type Automod interface {
	Check(ctx context.Context, msg automod.Message) (bool, error)
}

var (
	_ Lifecycle = (*sanctions.Service)(nil)
	_ Automod   = (*automod.Filter)(nil)
)

// Deps is what the handlers act on
type Deps struct {
	Lifecycle Lifecycle
	Automod   Automod
}

type handlers struct {
	Deps
}

// RegisterAll registers every event handler with the client
func RegisterAll(client *discord.ExtendedClient, deps Deps) {
	logger.System("📋 Registrando eventos del bot...", "Events")

	h := &handlers{Deps: deps}
	client.EventHandler.OnReady(h.onReady)
	client.EventHandler.OnGuildCreate(h.onGuildCreate)
	client.EventHandler.OnGuildDelete(h.onGuildDelete)
	client.EventHandler.OnGuildMemberAdd(h.onMemberAdd)
	client.EventHandler.OnGuildMemberRemove(h.onMemberRemove)
	client.EventHandler.OnMessageCreate(h.onMessageCreate)
	client.EventHandler.RegisterEvent("Disconnect", h.onDisconnect)
	client.EventHandler.RegisterEvent("Resumed", h.onResumed)

	logger.Success("✅ Todos los eventos registrados correctamente", "Events")
}
