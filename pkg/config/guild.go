package config

import (
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/duration"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// CountScope selects which outstanding warnings count toward the ceiling
type CountScope string

const (
	// ScopeGuild counts a subject's warnings in the issuing guild only.
	ScopeGuild CountScope = "guild"
	// ScopeGlobal counts a subject's warnings across every guild in the store.
	ScopeGlobal CountScope = "global"
)

// ParseCountScope maps an env value to a scope, defaulting to ScopeGuild
func ParseCountScope(v string) CountScope {
	if strings.EqualFold(strings.TrimSpace(v), string(ScopeGlobal)) {
		return ScopeGlobal
	}
	return ScopeGuild
}

// GuildSanctionConfig is the resolved, typed per-guild configuration consumed by
// the sanction lifecycle. It is built once per load by ResolveGuildConfig and
// never mutated afterwards.
type GuildSanctionConfig struct {
	MuteRoleName      string
	MuteDuration      time.Duration
	WarningDuration   time.Duration
	BanDuration       time.Duration
	MaxDuration       time.Duration
	MaxWarnings       int
	CountScope        CountScope
	MuteLogChannel    string
	WarningLogChannel string
	LogChannel        string
	NewMemberRoleName string
	DefaultReason     string
	NotifySubject     bool

	AutomodEnabled        bool
	AutomodBlacklist      []string
	AutomodBadLinks       []string
	AutomodExemptChannels []string
}

// DefaultGuildConfig returns the defaults every guild starts from
func DefaultGuildConfig() GuildSanctionConfig {
	return GuildSanctionConfig{
		MuteRoleName:      "Muted",
		MuteDuration:      5 * time.Minute,
		WarningDuration:   30 * time.Minute,
		BanDuration:       24 * time.Hour,
		MaxDuration:       365 * 24 * time.Hour,
		MaxWarnings:       3,
		CountScope:        ScopeGuild,
		MuteLogChannel:    "mute_HellinModerator_log",
		WarningLogChannel: "warn_HellinModerator_log",
		LogChannel:        "HellinModerator_logs",
		NewMemberRoleName: "Новичок",
		DefaultReason:     "Sin razón especificada",
		NotifySubject:     true,

		AutomodEnabled:        true,
		AutomodBlacklist:      []string{"fuck"},
		AutomodBadLinks:       []string{"azino777cashcazino-slots.ru"},
		AutomodExemptChannels: []string{"HellinModerator_logs", "clear_HellinModerator_log"},
	}
}

// DefaultDuration returns the configured duration for a sanction kind
func (c GuildSanctionConfig) DefaultDuration(kind models.SanctionKind) time.Duration {
	switch kind {
	case models.KindMute:
		return c.MuteDuration
	case models.KindBan:
		return c.BanDuration
	default:
		return c.WarningDuration
	}
}

// AuditChannel returns the log channel name for a sanction kind
func (c GuildSanctionConfig) AuditChannel(kind models.SanctionKind) string {
	switch kind {
	case models.KindMute:
		return c.MuteLogChannel
	case models.KindWarning:
		return c.WarningLogChannel
	default:
		return c.LogChannel
	}
}

// ResolveGuildConfig applies the stored overrides of one guild on top of defaults.
// A nil settings document yields the defaults unchanged.
func ResolveGuildConfig(defaults GuildSanctionConfig, s *models.GuildSettings) GuildSanctionConfig {
	c := defaults
	c.AutomodBlacklist = append([]string(nil), defaults.AutomodBlacklist...)
	c.AutomodBadLinks = append([]string(nil), defaults.AutomodBadLinks...)
	c.AutomodExemptChannels = append([]string(nil), defaults.AutomodExemptChannels...)
	if s == nil {
		return c
	}

	setString(&c.MuteRoleName, s.MuteRoleName)
	setString(&c.MuteLogChannel, s.MuteLogChannel)
	setString(&c.WarningLogChannel, s.WarningLogChannel)
	setString(&c.LogChannel, s.LogChannel)
	setString(&c.NewMemberRoleName, s.NewMemberRoleName)
	setString(&c.DefaultReason, s.DefaultReason)
	setDuration(&c.MuteDuration, s.MuteDuration)
	setDuration(&c.WarningDuration, s.WarningDuration)
	setDuration(&c.BanDuration, s.BanDuration)

	if s.MaxWarnings != nil && *s.MaxWarnings > 0 {
		c.MaxWarnings = *s.MaxWarnings
	}
	if s.NotifySubject != nil {
		c.NotifySubject = *s.NotifySubject
	}
	if s.AutomodEnabled != nil {
		c.AutomodEnabled = *s.AutomodEnabled
	}
	if s.AutomodBlacklist != nil {
		c.AutomodBlacklist = splitList(*s.AutomodBlacklist)
	}
	if s.AutomodBadLinks != nil {
		c.AutomodBadLinks = splitList(*s.AutomodBadLinks)
	}
	if s.AutomodExemptChans != nil {
		c.AutomodExemptChannels = splitList(*s.AutomodExemptChans)
	}
	return c
}

func setString(dst *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*dst = strings.TrimSpace(*v)
	}
}

func setDuration(dst *time.Duration, v *string) {
	if v == nil {
		return
	}
	if d, ok, err := duration.Parse(*v); ok && err == nil {
		*dst = d
	}
}

// splitList parses the comma separated lists stored by older settings rows
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
