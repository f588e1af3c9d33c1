package mod

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/duration"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// settingKeys are the overrides editable with /settings set, in menu order
var settingKeys = []string{
	"muteRoleName",
	"muteDuration",
	"warningDuration",
	"banDuration",
	"maxWarnings",
	"muteLogChannel",
	"warningLogChannel",
	"logChannel",
	"newMemberRoleName",
	"defaultReason",
	"notifySubject",
	"automodEnabled",
	"automodBlacklist",
	"automodBadLinks",
	"automodExemptChannels",
}

func (m *Module) settingsViewCommand() *discord.Command {
	return discord.NewCommand(
		"view",
		"Muestra la configuración de moderación efectiva",
		"mod",
		m.settingsViewHandler,
	).WithUserPermissions(discordgo.PermissionManageGuild).
		RequiresDatabase()
}

func (m *Module) settingsSetCommand() *discord.Command {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(settingKeys))
	for _, k := range settingKeys {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: k, Value: k})
	}
	return discord.NewCommand(
		"set",
		"Cambia un valor de la configuración de moderación",
		"mod",
		m.settingsSetHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "clave",
			Description: "Valor a cambiar",
			Required:    true,
			Choices:     choices,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "valor",
			Description: "Nuevo valor (listas separadas por comas)",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionManageGuild).
		RequiresDatabase()
}

func (m *Module) settingsResetCommand() *discord.Command {
	return discord.NewCommand(
		"reset",
		"Vuelve a la configuración de moderación por defecto",
		"mod",
		m.settingsResetHandler,
	).WithUserPermissions(discordgo.PermissionManageGuild).
		RequiresDatabase()
}

func (m *Module) settingsViewHandler(ctx *discord.CommandContext) error {
	cfg := m.Settings.GuildConfig(ctx.Context, ctx.Interaction.GuildID)
	return ctx.ReplyEphemeralEmbed(settingsEmbed(cfg))
}

func (m *Module) settingsSetHandler(ctx *discord.CommandContext) error {
	guildID := ctx.Interaction.GuildID
	key, value := ctx.GetStringOption("clave"), ctx.GetStringOption("valor")
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}

	c, cancel := context.WithTimeout(ctx.Context, commandTimeout)
	defer cancel()
	return ctx.EditReply(m.setSetting(c, guildID, key, value))
}

func (m *Module) settingsResetHandler(ctx *discord.CommandContext) error {
	c, cancel := context.WithTimeout(ctx.Context, commandTimeout)
	defer cancel()
	if err := m.Settings.Reset(c, ctx.Interaction.GuildID); err != nil {
		return ctx.ReplyEphemeral(failure(err))
	}
	return ctx.ReplyEphemeral("♻️ Configuración restablecida a los valores por defecto.")
}

func (m *Module) setSetting(ctx context.Context, guildID, key, value string) string {
	s := &models.GuildSettings{GuildID: guildID}
	if err := applySetting(s, key, value); err != nil {
		return "❌ " + err.Error()
	}
	if _, err := m.Settings.Save(ctx, s); err != nil {
		return failure(err)
	}
	return fmt.Sprintf("✅ `%s` actualizado a `%s`.", key, strings.TrimSpace(value))
}

// applySetting validates value and stores it in the matching field of s
func applySetting(s *models.GuildSettings, key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("el valor no puede estar vacío")
	}

	str := func(dst **string) error {
		*dst = &value
		return nil
	}
	dur := func(dst **string) error {
		d, ok, err := duration.Parse(value)
		if err != nil || !ok || d <= 0 {
			return fmt.Errorf("duración no válida: %q", value)
		}
		return str(dst)
	}
	flag := func(dst **bool) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("se esperaba true o false: %q", value)
		}
		*dst = &b
		return nil
	}

	switch key {
	case "muteRoleName":
		return str(&s.MuteRoleName)
	case "muteDuration":
		return dur(&s.MuteDuration)
	case "warningDuration":
		return dur(&s.WarningDuration)
	case "banDuration":
		return dur(&s.BanDuration)
	case "maxWarnings":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("se esperaba un número positivo: %q", value)
		}
		s.MaxWarnings = &n
		return nil
	case "muteLogChannel":
		return str(&s.MuteLogChannel)
	case "warningLogChannel":
		return str(&s.WarningLogChannel)
	case "logChannel":
		return str(&s.LogChannel)
	case "newMemberRoleName":
		return str(&s.NewMemberRoleName)
	case "defaultReason":
		return str(&s.DefaultReason)
	case "notifySubject":
		return flag(&s.NotifySubject)
	case "automodEnabled":
		return flag(&s.AutomodEnabled)
	case "automodBlacklist":
		return str(&s.AutomodBlacklist)
	case "automodBadLinks":
		return str(&s.AutomodBadLinks)
	case "automodExemptChannels":
		return str(&s.AutomodExemptChans)
	}
	return fmt.Errorf("clave desconocida: %q", key)
}

func settingsEmbed(cfg config.GuildSanctionConfig) *discordgo.MessageEmbed {
	field := func(name, value string) *discordgo.MessageEmbedField {
		if value == "" {
			value = "-"
		}
		return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true}
	}
	yesNo := func(b bool) string {
		if b {
			return "✅"
		}
		return "❌"
	}

	return &discordgo.MessageEmbed{
		Title: "⚙️ Configuración de moderación",
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			field("Rol de silencio", cfg.MuteRoleName),
			field("Silencio por defecto", duration.Format(cfg.MuteDuration)),
			field("Advertencia por defecto", duration.Format(cfg.WarningDuration)),
			field("Baneo por defecto", duration.Format(cfg.BanDuration)),
			field("Máximo de advertencias", strconv.Itoa(cfg.MaxWarnings)),
			field("Alcance del conteo", string(cfg.CountScope)),
			field("Canal de silencios", cfg.MuteLogChannel),
			field("Canal de advertencias", cfg.WarningLogChannel),
			field("Canal de registros", cfg.LogChannel),
			field("Rol de nuevos miembros", cfg.NewMemberRoleName),
			field("Razón por defecto", cfg.DefaultReason),
			field("Avisar por MD", yesNo(cfg.NotifySubject)),
			field("Automod", yesNo(cfg.AutomodEnabled)),
			field("Palabras prohibidas", strings.Join(cfg.AutomodBlacklist, ", ")),
			field("Enlaces prohibidos", strings.Join(cfg.AutomodBadLinks, ", ")),
			field("Canales exentos", strings.Join(cfg.AutomodExemptChannels, ", ")),
		},
	}
}
