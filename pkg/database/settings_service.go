package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

// SettingsService resolves per-guild overrides on top of the process defaults
type SettingsService struct {
	dm       *DataManager[models.GuildSettings]
	defaults config.GuildSanctionConfig
}

var _ sanctions.ConfigSource = (*SettingsService)(nil)

// NewSettingsService creates the service over the "GuildSettings" collection
func NewSettingsService(db *Database, defaults config.GuildSanctionConfig) *SettingsService {
	return &SettingsService{
		dm:       NewDataManager[models.GuildSettings](SettingsCollection, db),
		defaults: defaults,
	}
}

// Settings returns the stored overrides of a guild, nil when there are none
func (s *SettingsService) Settings(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	return s.dm.Get(ctx, guildID)
}

// GuildConfig never fails: without storage the defaults apply
func (s *SettingsService) GuildConfig(ctx context.Context, guildID string) config.GuildSanctionConfig {
	settings, err := s.Settings(ctx, guildID)
	if err != nil {
		logger.Warn(fmt.Sprintf("Usando configuración por defecto para %s: %v", guildID, err), "Settings")
	}
	return config.ResolveGuildConfig(s.defaults, settings)
}

// Save stores the overrides of a guild. Nil fields are left as they are.
func (s *SettingsService) Save(ctx context.Context, settings *models.GuildSettings) (*models.GuildSettings, error) {
	set := settingsUpdate(settings)
	if len(set) == 0 {
		return s.Settings(ctx, settings.GuildID)
	}
	return s.dm.Upsert(ctx, settings.GuildID, set)
}

// Reset drops every override of a guild
func (s *SettingsService) Reset(ctx context.Context, guildID string) error {
	return s.dm.Delete(ctx, guildID)
}

// settingsUpdate builds the $set document from the non-nil overrides
func settingsUpdate(s *models.GuildSettings) bson.M {
	set := bson.M{}
	put := func(key string, ok bool, v interface{}) {
		if ok {
			set[key] = v
		}
	}
	put("muteRoleName", s.MuteRoleName != nil, s.MuteRoleName)
	put("muteDuration", s.MuteDuration != nil, s.MuteDuration)
	put("warningDuration", s.WarningDuration != nil, s.WarningDuration)
	put("banDuration", s.BanDuration != nil, s.BanDuration)
	put("maxWarnings", s.MaxWarnings != nil, s.MaxWarnings)
	put("muteLogChannel", s.MuteLogChannel != nil, s.MuteLogChannel)
	put("warningLogChannel", s.WarningLogChannel != nil, s.WarningLogChannel)
	put("logChannel", s.LogChannel != nil, s.LogChannel)
	put("newMemberRoleName", s.NewMemberRoleName != nil, s.NewMemberRoleName)
	put("defaultReason", s.DefaultReason != nil, s.DefaultReason)
	put("notifySubject", s.NotifySubject != nil, s.NotifySubject)
	put("automodEnabled", s.AutomodEnabled != nil, s.AutomodEnabled)
	put("automodBlacklist", s.AutomodBlacklist != nil, s.AutomodBlacklist)
	put("automodBadLinks", s.AutomodBadLinks != nil, s.AutomodBadLinks)
	put("automodExemptChannels", s.AutomodExemptChans != nil, s.AutomodExemptChans)
	return set
}
