// Package config provides configuration management for the bot.
// Process settings come from the environment (and a .env file when present);
// per-guild sanction settings are layered on top in guild.go.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// Build metadata, set with -ldflags
var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

// Config holds all process level configuration values for the bot
type Config struct {
	BotToken   string
	DevGuildID string

	MongoDBURL string
	DBName     string

	// RedisURL backs the membership snapshot; empty keeps it in memory
	RedisURL string

	MQTTHost     string
	MQTTPort     string
	MQTTUser     string
	MQTTPassword string

	Port         string
	AllowedHosts string // regexp on the Host header; empty accepts all
	APIToken     string

	Environment string

	ErrorWebhook      string
	LogsWebhook       string
	LogsWebServerHook string

	SweepInterval     time.Duration
	SweepConcurrency  int
	PlatformRPS       float64
	WarningCountScope CountScope

	// GuildDefaults apply to every guild before its stored overrides
	GuildDefaults GuildSanctionConfig
}

// Load reads a fresh Config. A missing .env file is not an error; a malformed
// one is. Malformed numeric values fall back to their defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	scope := ParseCountScope(str("WARNING_COUNT_SCOPE", string(ScopeGuild)))
	defaults := ResolveGuildConfig(DefaultGuildConfig(), guildDefaultsFromEnv())
	defaults.CountScope = scope

	return &Config{
		BotToken:   str("botToken", ""),
		DevGuildID: str("devGuildId", ""),

		MongoDBURL: str("mongodbUrl", "mongodb://localhost:27017"),
		DBName:     str("dbName", "PancyMod"),
		RedisURL:   str("REDIS_URL", ""),

		MQTTHost:     str("MQTT_Host", "localhost"),
		MQTTPort:     str("MQTT_Port", "1883"),
		MQTTUser:     str("MQTT_User", ""),
		MQTTPassword: str("MQTT_Password", ""),

		Port:         str("PORT", "3000"),
		AllowedHosts: str("WEB_ALLOWED_HOSTS", ""),
		APIToken:     str("API_TOKEN", ""),

		Environment: str("enviroment", "dev"),

		ErrorWebhook:      str("errorWebhook", ""),
		LogsWebhook:       str("logsWebhook", ""),
		LogsWebServerHook: str("logsWebServerWebhook", ""),

		SweepInterval:     positive("SWEEP_INTERVAL", 2*time.Minute, time.ParseDuration),
		SweepConcurrency:  positive("SWEEP_CONCURRENCY", 4, strconv.Atoi),
		PlatformRPS:       positive("PLATFORM_RPS", 5.0, parseFloat),
		WarningCountScope: scope,

		GuildDefaults: defaults,
	}, nil
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// guildDefaultsFromEnv reads the process wide overrides of the guild defaults
// in the shape of a stored settings row. Flags use "1" and "0".
func guildDefaultsFromEnv() *models.GuildSettings {
	s := &models.GuildSettings{
		MuteRoleName:       lookup("MUTED_ROLE"),
		MuteDuration:       lookup("MUTE_DURATION"),
		WarningDuration:    lookup("WARNING_DURATION"),
		BanDuration:        lookup("BAN_DURATION"),
		MuteLogChannel:     lookup("MUTE_LOG_CHANNEL"),
		WarningLogChannel:  lookup("WARN_LOG_CHANNEL"),
		LogChannel:         lookup("LOG_CHANNEL"),
		NewMemberRoleName:  lookup("NEW_MEMBER_ROLE"),
		NotifySubject:      flag("NOTIFY_SUBJECT"),
		AutomodEnabled:     flag("AUTOMOD_ENABLED"),
		AutomodBlacklist:   lookup("AUTOMOD_BLACKLIST"),
		AutomodBadLinks:    lookup("AUTOMOD_BAD_LINKS"),
		AutomodExemptChans: lookup("AUTOMOD_EXEMPT_CHANNELS"),
	}
	if n := positive("MAX_WARNINGS", 0, strconv.Atoi); n > 0 {
		s.MaxWarnings = &n
	}
	return s
}

// str returns the value of key, or def when it is unset or empty
func str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func lookup(key string) *string {
	if v := os.Getenv(key); v != "" {
		return &v
	}
	return nil
}

func flag(key string) *bool {
	v := lookup(key)
	if v == nil {
		return nil
	}
	on := strings.TrimSpace(*v) == "1"
	return &on
}

// positive parses key with parse, keeping def unless the result is above zero
func positive[T int | float64 | time.Duration](key string, def T, parse func(string) (T, error)) T {
	v, err := parse(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
