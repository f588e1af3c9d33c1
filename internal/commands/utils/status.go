package utils

import (
	"context"
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

func (m *Module) createStatusCommand() *discord.Command {
	return discord.NewCommand(
		"status",
		"Muestra el estado del bot",
		"utils",
		m.statusHandler,
	)
}

// statusHandler defers first: the database check can take a few seconds
func (m *Module) statusHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}
	c, cancel := withTimeout(ctx.Context)
	defer cancel()
	return ctx.EditReply(m.statusText(c, ctx.Client.GuildCount()))
}

func (m *Module) statusText(ctx context.Context, guilds int) string {
	db, _ := m.Database.GetStatus(ctx)
	lines := []string{
		"📊 **Estado del Bot**",
		"• Bot: 🟢 Online",
		"• Base de datos: " + db,
		"• MQTT: " + connectionStatus(m.MQTT != nil && m.MQTT.IsConnected()),
		fmt.Sprintf("• Servidores: %d", guilds),
	}
	if n := m.Database.QueueLen(); n > 0 {
		lines = append(lines, fmt.Sprintf("• Escrituras pendientes: %d", n))
	}
	return strings.Join(lines, "\n")
}

func connectionStatus(up bool) string {
	if up {
		return "🟢 | Conectado"
	}
	return "🔴 | Desconectado"
}
