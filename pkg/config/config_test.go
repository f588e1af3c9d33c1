package config

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoad(t *testing.T) {
	t.Setenv("botToken", "test-token")
	t.Setenv("PORT", "3001")
	t.Setenv("enviroment", "test")
	t.Setenv("API_TOKEN", "secret")

	cfg := load(t)
	assert.Equal(t, "test-token", cfg.BotToken)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, "secret", cfg.APIToken)
	assert.NotSame(t, cfg, load(t))
}

func TestDefaultValues(t *testing.T) {
	for _, key := range []string{"mongodbUrl", "dbName", "MQTT_Host", "MQTT_Port", "PORT", "enviroment",
		"SWEEP_INTERVAL", "SWEEP_CONCURRENCY", "PLATFORM_RPS", "WARNING_COUNT_SCOPE", "REDIS_URL"} {
		t.Setenv(key, "")
	}

	cfg := load(t)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDBURL)
	assert.Equal(t, "PancyMod", cfg.DBName)
	assert.Equal(t, "localhost", cfg.MQTTHost)
	assert.Equal(t, "1883", cfg.MQTTPort)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 2*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 4, cfg.SweepConcurrency)
	assert.Equal(t, 5.0, cfg.PlatformRPS)
	assert.Equal(t, ScopeGuild, cfg.WarningCountScope)
	assert.Equal(t, DefaultGuildConfig(), cfg.GuildDefaults)
	assert.False(t, cfg.IsProd())
}

func TestLoadSweepSettings(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("SWEEP_CONCURRENCY", "8")
	t.Setenv("PLATFORM_RPS", "not-a-number")
	t.Setenv("WARNING_COUNT_SCOPE", "GLOBAL")

	cfg := load(t)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, 8, cfg.SweepConcurrency)
	assert.Equal(t, 5.0, cfg.PlatformRPS, "unparseable values fall back")
	assert.Equal(t, ScopeGlobal, cfg.WarningCountScope)
	assert.Equal(t, ScopeGlobal, cfg.GuildDefaults.CountScope)
}

func TestGuildDefaultsFromEnv(t *testing.T) {
	t.Setenv("MUTED_ROLE", "Silenciado")
	t.Setenv("MUTE_DURATION", "10m")
	t.Setenv("WARNING_DURATION", "garbage")
	t.Setenv("MAX_WARNINGS", "5")
	t.Setenv("NOTIFY_SUBJECT", "0")
	t.Setenv("AUTOMOD_BLACKLIST", "spam, scam")

	d := load(t).GuildDefaults
	assert.Equal(t, "Silenciado", d.MuteRoleName)
	assert.Equal(t, 10*time.Minute, d.MuteDuration)
	assert.Equal(t, 30*time.Minute, d.WarningDuration, "invalid durations keep the default")
	assert.Equal(t, 5, d.MaxWarnings)
	assert.False(t, d.NotifySubject)
	assert.True(t, d.AutomodEnabled)
	assert.Equal(t, []string{"spam", "scam"}, d.AutomodBlacklist)
}

func TestIsProd(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"prod", true},
		{"dev", false},
		{"canary", false},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, (&Config{Environment: tt.env}).IsProd())
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")
	t.Setenv("TEST_NEGATIVE", "-3")
	assert.Equal(t, "test-value", str("TEST_VAR", "default"))
	assert.Equal(t, "default", str("NON_EXISTENT_VAR", "default"))
	assert.Nil(t, lookup("NON_EXISTENT_VAR"))
	assert.Equal(t, 7, positive("NON_EXISTENT_VAR", 7, strconv.Atoi))
	assert.Equal(t, 7, positive("TEST_NEGATIVE", 7, strconv.Atoi))
}
