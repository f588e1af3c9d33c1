// Package automod removes messages containing blacklisted words or links.
package automod

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

// MatchKind says which list a match came from
type MatchKind string

const (
	MatchWord MatchKind = "word"
	MatchLink MatchKind = "link"
)

const tmplRemovedNotice sanctions.Template = "Your message in **{guild}** was removed because it contained a forbidden {matchKind}: `{match}`"

// Platform is what the filter needs from Discord
type Platform interface {
	Member(ctx context.Context, guildID, userID string) (*sanctions.Member, error)
	BotMember(ctx context.Context, guildID string) (*sanctions.Member, error)
	GuildName(ctx context.Context, guildID string) string
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// Sink receives the audit entry and the author notice
type Sink interface {
	Notify(ctx context.Context, subjectID string, tmpl sanctions.Template, vars sanctions.Vars)
	Audit(ctx context.Context, guildID, channelName string, tmpl sanctions.Template, vars sanctions.Vars)
}

// Message is the part of a guild message the filter looks at
type Message struct {
	ID          string
	GuildID     string
	ChannelID   string
	ChannelName string
	AuthorID    string
	AuthorBot   bool
	Content     string
}

// Filter checks guild messages against the guild's word and link lists
type Filter struct {
	platform  Platform
	configs   sanctions.ConfigSource
	sink      Sink
	deletions prometheus.Counter
}

// NewFilter creates a content filter
func NewFilter(platform Platform, configs sanctions.ConfigSource, sink Sink, deletions prometheus.Counter) *Filter {
	return &Filter{platform: platform, configs: configs, sink: sink, deletions: deletions}
}

// Match returns the first blacklisted word or link found in content.
// Matching is a case-insensitive substring search, words first.
func Match(cfg config.GuildSanctionConfig, content string) (string, MatchKind, bool) {
	text := strings.ToLower(content)
	if item, ok := firstIn(text, cfg.AutomodBlacklist); ok {
		return item, MatchWord, true
	}
	if item, ok := firstIn(text, cfg.AutomodBadLinks); ok {
		return item, MatchLink, true
	}
	return "", "", false
}

func firstIn(text string, items []string) (string, bool) {
	for _, item := range items {
		needle := strings.ToLower(strings.TrimSpace(item))
		if needle != "" && strings.Contains(text, needle) {
			return item, true
		}
	}
	return "", false
}

func exempt(cfg config.GuildSanctionConfig, channelName string) bool {
	for _, name := range cfg.AutomodExemptChannels {
		if strings.EqualFold(strings.TrimSpace(name), channelName) {
			return true
		}
	}
	return false
}

// Check deletes msg when it matches the guild's lists and reports whether it
// did. Administrators and members ranked at or above the bot are not checked.
func (f *Filter) Check(ctx context.Context, msg Message) (bool, error) {
	if msg.GuildID == "" || msg.AuthorBot || msg.Content == "" {
		return false, nil
	}

	cfg := f.configs.GuildConfig(ctx, msg.GuildID)
	if !cfg.AutomodEnabled || exempt(cfg, msg.ChannelName) {
		return false, nil
	}

	match, kind, ok := Match(cfg, msg.Content)
	if !ok {
		return false, nil
	}

	author, err := f.platform.Member(ctx, msg.GuildID, msg.AuthorID)
	if err != nil {
		return false, fmt.Errorf("resolve author: %w", err)
	}
	if author.Has(discordgo.PermissionAdministrator) {
		return false, nil
	}
	bot, err := f.platform.BotMember(ctx, msg.GuildID)
	if err != nil {
		return false, fmt.Errorf("resolve bot member: %w", err)
	}
	if bot.TopRolePosition <= author.TopRolePosition {
		return false, nil
	}

	if err := f.platform.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
		return false, fmt.Errorf("delete message: %w", err)
	}
	f.deletions.Inc()

	vars := sanctions.Vars{
		"guild":     f.platform.GuildName(ctx, msg.GuildID),
		"subject":   msg.AuthorID,
		"channel":   msg.ChannelID,
		"match":     match,
		"matchKind": string(kind),
	}
	f.sink.Audit(ctx, msg.GuildID, cfg.LogChannel, sanctions.TmplAutomodAudit, vars)
	f.sink.Notify(ctx, msg.AuthorID, tmplRemovedNotice, vars)

	logger.Info(fmt.Sprintf("Mensaje de %s eliminado en %s (%s: %s)", msg.AuthorID, msg.GuildID, kind, match), "Automod")
	return true, nil
}
