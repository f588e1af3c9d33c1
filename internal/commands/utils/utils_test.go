package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

type fakeDB struct {
	up    bool
	queue int
}

func (f fakeDB) GetStatus(ctx context.Context) (string, bool) {
	if f.up {
		return "🟢 | En linea", true
	}
	return "🔴 | Desconectado", false
}

func (f fakeDB) Ping(ctx context.Context) (time.Duration, error) {
	if f.up {
		return 12 * time.Millisecond, nil
	}
	return 0, errors.New("database not connected")
}

func (f fakeDB) QueueLen() int { return f.queue }

type fakeConn bool

func (f fakeConn) IsConnected() bool { return bool(f) }

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, ""},
		{45 * time.Second, "45 segundos"},
		{26*time.Hour + 3*time.Minute, "1 días, 2 horas, 3 minutos"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func TestStatusText(t *testing.T) {
	m := &Module{Database: fakeDB{up: true}, MQTT: fakeConn(true)}
	out := m.statusText(context.Background(), 4)
	assert.Contains(t, out, "Base de datos: 🟢 | En linea")
	assert.Contains(t, out, "MQTT: 🟢 | Conectado")
	assert.Contains(t, out, "Servidores: 4")
	assert.NotContains(t, out, "pendientes")

	m = &Module{Database: fakeDB{queue: 2}}
	out = m.statusText(context.Background(), 0)
	assert.Contains(t, out, "MQTT: 🔴 | Desconectado")
	assert.Contains(t, out, "Escrituras pendientes: 2")
}

func TestSummarize(t *testing.T) {
	rows := []models.Sanction{{Kind: models.KindWarning}, {Kind: models.KindWarning}, {Kind: models.KindBan}}
	assert.Equal(t, "advertencia: 2 · silencio: 0 · baneo: 1", summarize(rows))
}

func TestHelpEmbedListsSubcommands(t *testing.T) {
	cmds := []*discordgo.ApplicationCommand{
		{Name: "warn", Description: "Advierte a un usuario"},
		{Name: "utils", Description: "Comandos de utilidad", Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "ping", Description: "Latencia"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "stats", Description: "Estadísticas"},
		}},
	}

	desc := helpEmbed(cmds).Description
	assert.Contains(t, desc, "• `/warn` - Advierte a un usuario")
	assert.Contains(t, desc, "• `/utils ping` - Latencia")
	assert.Contains(t, desc, "• `/utils stats` - Estadísticas")
	assert.NotContains(t, desc, "Comandos de utilidad")
	assert.Contains(t, desc, durationHint)
}

func TestStatsEmbed(t *testing.T) {
	embed := statsEmbed(botStats{Uptime: 90 * time.Second, Guilds: 2, Members: 40, Sanctions: "advertencia: 1", Known: "38"})
	require.Len(t, embed.Fields, 10)
	values := map[string]string{}
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "1 minutos, 30 segundos", values["⏱ Uptime"])
	assert.Equal(t, "2", values["🏠 Servidores"])
	assert.Equal(t, "advertencia: 1", values["⚖️ Sanciones activas"])
	assert.Equal(t, "38", values["🗂 Miembros en snapshot"])
}

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) Size(ctx context.Context, guildID string) (int, error) { return f.n, f.err }

func TestKnownMembers(t *testing.T) {
	assert.Equal(t, "-", (&Module{}).knownMembers(context.Background(), "g1"))
	assert.Equal(t, "12", (&Module{Members: fakeCounter{n: 12}}).knownMembers(context.Background(), "g1"))
	assert.Equal(t, "No disponible", (&Module{Members: fakeCounter{err: errors.New("down")}}).knownMembers(context.Background(), "g1"))
}

func TestPingText(t *testing.T) {
	m := &Module{Database: fakeDB{up: true}}
	assert.Equal(t, "🏓 Pong! Gateway: 40ms · Base de datos: 12ms", m.pingText(context.Background(), 40*time.Millisecond))

	m = &Module{Database: fakeDB{}}
	assert.Contains(t, m.pingText(context.Background(), 0), "Base de datos: sin conexión")
}
