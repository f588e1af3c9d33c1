package utils

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// createStatsCommand creates the /utils stats subcommand
func (m *Module) createStatsCommand() *discord.Command {
	return discord.NewCommand(
		"stats",
		"Muestra estadísticas del bot",
		"utils",
		m.statsHandler,
	)
}

// botStats is what /utils stats shows
type botStats struct {
	Uptime     time.Duration
	Guilds     int
	Members    int
	HeapBytes  uint64
	Goroutines int
	Sanctions  string
	Known      string
}

func (m *Module) statsHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}
	c, cancel := withTimeout(ctx.Context)
	defer cancel()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	stats := botStats{
		Uptime:     time.Since(ctx.Client.StartTime),
		Guilds:     ctx.Client.GuildCount(),
		Members:    memberCount(ctx.Session.State),
		HeapBytes:  mem.Alloc,
		Goroutines: runtime.NumGoroutine(),
		Sanctions:  m.sanctionSummary(c, ctx.Interaction.GuildID),
		Known:      m.knownMembers(c, ctx.Interaction.GuildID),
	}
	return ctx.EditReplyEmbed(statsEmbed(stats))
}

func memberCount(st *discordgo.State) int {
	st.RLock()
	defer st.RUnlock()
	n := 0
	for _, g := range st.Guilds {
		n += g.MemberCount
	}
	return n
}

func statsEmbed(s botStats) *discordgo.MessageEmbed {
	field := func(name, value string) *discordgo.MessageEmbedField {
		return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true}
	}
	return &discordgo.MessageEmbed{
		Title: "📊 Estadísticas del Bot",
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			field("🤖 Versión", config.Version),
			field("🐹 Go", strings.TrimPrefix(runtime.Version(), "go")),
			field("📚 DiscordGo", discordgo.VERSION),
			field("🖥 Memoria", fmt.Sprintf("%.2f MB", float64(s.HeapBytes)/(1<<20))),
			field("⚙️ Goroutines", fmt.Sprintf("%d / %d CPUs", s.Goroutines, runtime.NumCPU())),
			field("⏱ Uptime", formatDuration(s.Uptime)),
			field("🏠 Servidores", fmt.Sprint(s.Guilds)),
			field("👥 Miembros", fmt.Sprint(s.Members)),
			field("🗂 Miembros en snapshot", s.Known),
			field("⚖️ Sanciones activas", s.Sanctions),
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "💫 - Developed by PancyStudios"},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// sanctionSummary counts the guild's outstanding sanctions by kind
func (m *Module) sanctionSummary(ctx context.Context, guildID string) string {
	if m.Sanctions == nil {
		return "-"
	}
	rows, err := m.Sanctions.ListForGuild(ctx, guildID)
	if err != nil {
		return "No disponible"
	}
	return summarize(rows)
}

// knownMembers is the size of the guild's membership snapshot
func (m *Module) knownMembers(ctx context.Context, guildID string) string {
	if m.Members == nil {
		return "-"
	}
	n, err := m.Members.Size(ctx, guildID)
	if err != nil {
		return "No disponible"
	}
	return fmt.Sprint(n)
}

func summarize(rows []models.Sanction) string {
	counts := make(map[models.SanctionKind]int)
	for _, s := range rows {
		counts[s.Kind]++
	}
	parts := make([]string, 0, len(models.Kinds))
	for _, k := range models.Kinds {
		parts = append(parts, fmt.Sprintf("%s: %d", k.Label(), counts[k]))
	}
	return strings.Join(parts, " · ")
}

// formatDuration renders d as "1 días, 2 horas, 3 minutos", skipping zero units
func formatDuration(d time.Duration) string {
	units := []struct {
		size time.Duration
		name string
	}{
		{24 * time.Hour, "días"},
		{time.Hour, "horas"},
		{time.Minute, "minutos"},
		{time.Second, "segundos"},
	}
	var parts []string
	for _, u := range units {
		if n := d / u.size; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, u.name))
			d -= n * u.size
		}
	}
	return strings.Join(parts, ", ")
}
