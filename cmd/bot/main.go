// Package main is the entry point for PancyMod.
// It initializes all systems and starts the Discord bot.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/automod"
	"github.com/PancyStudios/PancyModGo/internal/commands"
	"github.com/PancyStudios/PancyModGo/internal/commands/mod"
	"github.com/PancyStudios/PancyModGo/internal/commands/staff"
	"github.com/PancyStudios/PancyModGo/internal/commands/utils"
	"github.com/PancyStudios/PancyModGo/internal/events"
	"github.com/PancyStudios/PancyModGo/internal/roles"
	"github.com/PancyStudios/PancyModGo/internal/scheduler"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/membership"
	"github.com/PancyStudios/PancyModGo/pkg/metrics"
	"github.com/PancyStudios/PancyModGo/pkg/mqtt"
	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
	"github.com/PancyStudios/PancyModGo/pkg/web"
)

const snapshotTTL = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System(fmt.Sprintf("Iniciando PancyMod %s (%s)...", config.Version, cfg.Environment), "Main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var discordClient *discord.ExtendedClient
	errors.Init(cfg.ErrorWebhook, func() {
		cancel()
		if discordClient != nil {
			_ = discordClient.Stop()
		}
	})

	m := metrics.Default()

	// A failed connect leaves the database offline and redialing in the background.
	db := database.NewDatabase()
	if err := db.Connect(ctx, cfg.MongoDBURL, cfg.DBName); err != nil {
		logger.Error(fmt.Sprintf("Error connecting to database: %v", err), "Main")
	}
	defer func() { _ = db.Disconnect(context.Background()) }()

	store := database.NewSanctionStore(db)
	history := database.NewHistoryStore(db)
	settings := database.NewSettingsService(db, cfg.GuildDefaults)

	snapshot := newSnapshot(ctx, cfg.RedisURL)
	if c, ok := snapshot.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	mqttClientID := "pancymod"
	if !cfg.IsProd() {
		mqttClientID = "pancymod_canary"
	}
	mqttClient := mqtt.NewMqttCommunicator(cfg.MQTTHost, cfg.MQTTPort, cfg.MQTTUser, cfg.MQTTPassword, mqttClientID)
	defer mqttClient.Destroy()

	discordClient, err = discord.NewClient(cfg.BotToken, cfg.DevGuildID)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}
	discordClient.DBReady = db.Connected
	platform := discord.NewPlatform(discordClient.Session, cfg.PlatformRPS)

	svc := sanctions.New(sanctions.Deps{
		Store:            store,
		Platform:         platform,
		Configs:          settings,
		History:          history,
		Snapshot:         snapshot,
		Events:           mqtt.NewEventPublisher(mqttClient),
		Metrics:          m,
		SweepConcurrency: cfg.SweepConcurrency,
	})
	defer svc.Close()

	mqtt.ServeModeration(mqttClient, svc)

	webServer, err := web.NewServer(cfg.LogsWebServerHook, cfg.AllowedHosts)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating web server: %v", err), "Main")
		os.Exit(1)
	}
	web.SetupAPIRoutes(webServer, &web.API{
		Moderation: svc,
		Sanctions:  store,
		Settings:   settings,
		Database:   db,
		Bot:        discordClient,
		Token:      cfg.APIToken,
		Version:    config.Version,
	})
	webServer.StartAsync(cfg.Port)

	commands.RegisterAll(discordClient, commands.Modules{
		Mod: &mod.Module{
			Service:   svc,
			Sanctions: store,
			History:   history,
			Kicker:    platform,
			Settings:  settings,
		},
		Staff: &staff.Module{
			Selections: roles.NewSelections(1000, roles.SelectionTTL),
			Poster:     platform,
		},
		Utils: &utils.Module{
			Database:  db,
			MQTT:      mqttClient,
			Sanctions: store,
			Members:   snapshot,
		},
	})

	events.RegisterAll(discordClient, events.Deps{
		Lifecycle: svc,
		Automod:   automod.NewFilter(platform, settings, svc.Sink, m.AutomodDeletions),
	})

	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func() { _ = discordClient.Stop() }()

	sweeper := scheduler.NewSweeper(svc, discordClient, cfg.SweepInterval, cfg.SweepConcurrency)
	errors.Go(func() { sweeper.Run(ctx) })

	logger.Success("PancyMod iniciado correctamente!", "Main")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	select {
	case <-sc:
	case <-ctx.Done():
	}

	logger.System("Apagando PancyMod...", "Main")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn(fmt.Sprintf("Error apagando el servidor web: %v", err), "Main")
	}
}

// newSnapshot prefers Redis so membership survives restarts, falling back to
// an in-process cache
func newSnapshot(ctx context.Context, redisURL string) membership.Snapshot {
	if redisURL != "" {
		rs, err := membership.NewRedisSnapshot(ctx, redisURL, snapshotTTL)
		if err == nil {
			logger.Success("Snapshot de miembros en Redis.", "Main")
			return rs
		}
		logger.Warn(fmt.Sprintf("Redis no disponible, usando memoria: %v", err), "Main")
	}
	return membership.NewMemSnapshot(1000, snapshotTTL)
}
