package models

// GuildSettings is the per-guild override document stored in the "GuildSettings"
// collection. Nil fields fall back to the process wide defaults.
type GuildSettings struct {
	GuildID string `bson:"_id" json:"guildId"`

	MuteRoleName       *string `bson:"muteRoleName,omitempty" json:"muteRoleName,omitempty"`
	MuteDuration       *string `bson:"muteDuration,omitempty" json:"muteDuration,omitempty"`
	WarningDuration    *string `bson:"warningDuration,omitempty" json:"warningDuration,omitempty"`
	BanDuration        *string `bson:"banDuration,omitempty" json:"banDuration,omitempty"`
	MaxWarnings        *int    `bson:"maxWarnings,omitempty" json:"maxWarnings,omitempty"`
	MuteLogChannel     *string `bson:"muteLogChannel,omitempty" json:"muteLogChannel,omitempty"`
	WarningLogChannel  *string `bson:"warningLogChannel,omitempty" json:"warningLogChannel,omitempty"`
	LogChannel         *string `bson:"logChannel,omitempty" json:"logChannel,omitempty"`
	NewMemberRoleName  *string `bson:"newMemberRoleName,omitempty" json:"newMemberRoleName,omitempty"`
	DefaultReason      *string `bson:"defaultReason,omitempty" json:"defaultReason,omitempty"`
	NotifySubject      *bool   `bson:"notifySubject,omitempty" json:"notifySubject,omitempty"`
	AutomodEnabled     *bool   `bson:"automodEnabled,omitempty" json:"automodEnabled,omitempty"`
	AutomodBlacklist   *string `bson:"automodBlacklist,omitempty" json:"automodBlacklist,omitempty"`
	AutomodBadLinks    *string `bson:"automodBadLinks,omitempty" json:"automodBadLinks,omitempty"`
	AutomodExemptChans *string `bson:"automodExemptChannels,omitempty" json:"automodExemptChannels,omitempty"`
}
