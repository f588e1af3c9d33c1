package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

func (m *Module) createPingCommand() *discord.Command {
	return discord.NewCommand(
		"ping",
		"Comprueba la latencia del gateway y de la base de datos",
		"utils",
		m.pingHandler,
	)
}

func (m *Module) pingHandler(ctx *discord.CommandContext) error {
	c, cancel := withTimeout(ctx.Context)
	defer cancel()
	return ctx.Reply(m.pingText(c, ctx.Client.Session.HeartbeatLatency()))
}

func (m *Module) pingText(ctx context.Context, gateway time.Duration) string {
	db := "sin conexión"
	if m.Database != nil {
		if rtt, err := m.Database.Ping(ctx); err == nil {
			db = fmt.Sprintf("%dms", rtt.Milliseconds())
		}
	}
	return fmt.Sprintf("🏓 Pong! Gateway: %dms · Base de datos: %s", gateway.Milliseconds(), db)
}
