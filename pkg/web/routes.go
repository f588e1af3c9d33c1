package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

// Moderation is what the API exposes of the sanction service
type Moderation interface {
	Count(ctx context.Context, guildID, subjectID string) (int, error)
	Sweep(ctx context.Context, guildID string) (sanctions.SweepReport, error)
}

// SanctionLister lists outstanding sanctions
type SanctionLister interface {
	ListForGuild(ctx context.Context, guildID string) ([]models.Sanction, error)
	ListForSubject(ctx context.Context, guildID, subjectID string, kind models.SanctionKind) ([]models.Sanction, error)
}

// SettingsStore reads and writes per-guild overrides
type SettingsStore interface {
	Settings(ctx context.Context, guildID string) (*models.GuildSettings, error)
	Save(ctx context.Context, settings *models.GuildSettings) (*models.GuildSettings, error)
	Reset(ctx context.Context, guildID string) error
}

// StatusSource reports the health of the database
type StatusSource interface {
	GetStatus(ctx context.Context) (string, bool)
}

// BotStatus reports the gateway state
type BotStatus interface {
	IsReady() bool
	GuildCount() int
}

// API holds the dependencies of the HTTP routes. When Token is set every
// /api/guilds route requires it as a Bearer token. Without a Token those
// routes are read-only.
type API struct {
	Moderation Moderation
	Sanctions  SanctionLister
	Settings   SettingsStore
	Database   StatusSource
	Bot        BotStatus
	Token      string
	Version    string
}

// SetupAPIRoutes registers the API and /metrics on s
func SetupAPIRoutes(s *Server, a *API) {
	s.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.Group("/api")
	{
		api.GET("/status", a.statusHandler)
		api.GET("/health", healthHandler)
	}

	guilds := api.Group("/guilds/:guildID", a.authMiddleware())
	{
		guilds.GET("/sanctions", a.listSanctionsHandler)
		guilds.GET("/members/:userID/warnings", a.warningsHandler)
		guilds.POST("/sweep", a.sweepHandler)
		guilds.GET("/settings", a.getSettingsHandler)
		guilds.PUT("/settings", a.putSettingsHandler)
		guilds.DELETE("/settings", a.deleteSettingsHandler)
	}
}

func (a *API) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.Token == "" {
			if c.Request.Method != http.MethodGet {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "API token not configured"})
				return
			}
			c.Next()
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(a.Token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// statusHandler returns the bot and database status
func (a *API) statusHandler(c *gin.Context) {
	dbStatus, dbOnline := a.Database.GetStatus(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": a.Version,
		"database": gin.H{
			"status":   dbStatus,
			"isOnline": dbOnline,
		},
		"bot": gin.H{
			"isOnline": a.Bot.IsReady(),
			"guilds":   a.Bot.GuildCount(),
		},
	})
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "PancyMod Go is running",
	})
}

func (a *API) listSanctionsHandler(c *gin.Context) {
	guildID := c.Param("guildID")
	kind := models.SanctionKind(c.Query("kind"))
	if kind != "" && !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown kind"})
		return
	}

	var (
		rows []models.Sanction
		err  error
	)
	if subject := c.Query("subjectId"); subject != "" {
		rows, err = a.Sanctions.ListForSubject(c.Request.Context(), guildID, subject, kind)
	} else {
		rows, err = a.Sanctions.ListForGuild(c.Request.Context(), guildID)
		rows = filterKind(rows, kind)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	if rows == nil {
		rows = []models.Sanction{}
	}
	c.JSON(http.StatusOK, gin.H{"guildId": guildID, "sanctions": rows})
}

func filterKind(rows []models.Sanction, kind models.SanctionKind) []models.Sanction {
	if kind == "" {
		return rows
	}
	out := rows[:0]
	for _, r := range rows {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func (a *API) warningsHandler(c *gin.Context) {
	guildID, userID := c.Param("guildID"), c.Param("userID")
	n, err := a.Moderation.Count(c.Request.Context(), guildID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guildId": guildID, "userId": userID, "warnings": n})
}

func (a *API) sweepHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Minute)
	defer cancel()

	report, err := a.Moderation.Sweep(ctx, c.Param("guildID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *API) getSettingsHandler(c *gin.Context) {
	guildID := c.Param("guildID")
	settings, err := a.Settings.Settings(c.Request.Context(), guildID)
	if err != nil {
		writeError(c, err)
		return
	}
	if settings == nil {
		settings = &models.GuildSettings{GuildID: guildID}
	}
	c.JSON(http.StatusOK, settings)
}

func (a *API) putSettingsHandler(c *gin.Context) {
	var body models.GuildSettings
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	body.GuildID = c.Param("guildID")

	saved, err := a.Settings.Save(c.Request.Context(), &body)
	if err != nil {
		writeError(c, err)
		return
	}
	if saved == nil {
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (a *API) deleteSettingsHandler(c *gin.Context) {
	if err := a.Settings.Reset(c.Request.Context(), c.Param("guildID")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError maps sanction errors onto HTTP status codes
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, sanctions.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, sanctions.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, sanctions.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sanctions.ErrTransientPlatform):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
