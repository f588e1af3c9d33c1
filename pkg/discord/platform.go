package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

// Platform implements sanctions.Platform over a discordgo session. Every REST
// call waits on a shared limiter so a large sweep cannot trip Discord's
// global rate limit.
type Platform struct {
	session *discordgo.Session
	limiter *rate.Limiter
}

var _ sanctions.Platform = (*Platform)(nil)

// NewPlatform creates the adapter. rps <= 0 disables pacing.
func NewPlatform(session *discordgo.Session, rps float64) *Platform {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Platform{session: session, limiter: rate.NewLimiter(limit, 5)}
}

// call waits for the limiter, then runs fn with ctx attached to the request
func (p *Platform) call(ctx context.Context, op string, fn func(opt discordgo.RequestOption) error) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w: %v", op, sanctions.ErrTransientPlatform, err)
	}
	return classify(op, fn(discordgo.WithContext(ctx)))
}

// classify maps a discordgo error onto the sanction error taxonomy
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) {
		if rest.Message != nil {
			switch rest.Message.Code {
			case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
				return fmt.Errorf("%s: %w", op, sanctions.ErrSubjectGone)
			case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess, discordgo.ErrCodeCannotSendMessagesToThisUser:
				return fmt.Errorf("%s: %w: %s", op, sanctions.ErrPermissionDenied, rest.Message.Message)
			}
		}
		if rest.Response != nil && rest.Response.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%s: %w", op, sanctions.ErrPermissionDenied)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, sanctions.ErrTransientPlatform, err)
}

// restCode returns the Discord JSON error code of err, or 0
func restCode(err error) int {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil {
		return rest.Message.Code
	}
	return 0
}

func (p *Platform) guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if g, err := p.session.State.Guild(guildID); err == nil && len(g.Roles) > 0 {
		return g, nil
	}
	var g *discordgo.Guild
	err := p.call(ctx, "guild", func(opt discordgo.RequestOption) (err error) {
		g, err = p.session.Guild(guildID, opt)
		return err
	})
	return g, err
}

func (p *Platform) Member(ctx context.Context, guildID, userID string) (*sanctions.Member, error) {
	g, err := p.guild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	var m *discordgo.Member
	err = p.call(ctx, "member", func(opt discordgo.RequestOption) (err error) {
		m, err = p.session.GuildMember(guildID, userID, opt)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := toMember(g, m)
	return &out, nil
}

func (p *Platform) Members(ctx context.Context, guildID string) ([]sanctions.Member, error) {
	g, err := p.guild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	var out []sanctions.Member
	after := ""
	for {
		var page []*discordgo.Member
		err := p.call(ctx, "members", func(opt discordgo.RequestOption) (err error) {
			page, err = p.session.GuildMembers(guildID, after, 1000, opt)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, m := range page {
			out = append(out, toMember(g, m))
		}
		if len(page) < 1000 {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (p *Platform) BotMember(ctx context.Context, guildID string) (*sanctions.Member, error) {
	return p.Member(ctx, guildID, p.session.State.User.ID)
}

func (p *Platform) GuildOwnerID(ctx context.Context, guildID string) (string, error) {
	g, err := p.guild(ctx, guildID)
	if err != nil {
		return "", err
	}
	return g.OwnerID, nil
}

func (p *Platform) GuildName(ctx context.Context, guildID string) string {
	if g, err := p.session.State.Guild(guildID); err == nil && g.Name != "" {
		return g.Name
	}
	return guildID
}

func (p *Platform) EnsureRole(ctx context.Context, guildID, name string, deny int64) (string, error) {
	var roles []*discordgo.Role
	err := p.call(ctx, "roles", func(opt discordgo.RequestOption) (err error) {
		roles, err = p.session.GuildRoles(guildID, opt)
		return err
	})
	if err != nil {
		return "", err
	}
	for _, r := range roles {
		if r.Name == name {
			return r.ID, nil
		}
	}

	none := int64(0)
	var role *discordgo.Role
	err = p.call(ctx, "create role", func(opt discordgo.RequestOption) (err error) {
		role, err = p.session.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: name, Permissions: &none}, opt)
		return err
	})
	if err != nil {
		return "", err
	}
	if deny == 0 {
		return role.ID, nil
	}

	var channels []*discordgo.Channel
	err = p.call(ctx, "channels", func(opt discordgo.RequestOption) (err error) {
		channels, err = p.session.GuildChannels(guildID, opt)
		return err
	})
	if err != nil {
		return role.ID, nil
	}
	for _, ch := range channels {
		_ = p.call(ctx, "overwrite", func(opt discordgo.RequestOption) error {
			return p.session.ChannelPermissionSet(ch.ID, role.ID, discordgo.PermissionOverwriteTypeRole, 0, deny, opt)
		})
	}
	return role.ID, nil
}

func (p *Platform) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return p.call(ctx, "add role", func(opt discordgo.RequestOption) error {
		return p.session.GuildMemberRoleAdd(guildID, userID, roleID, opt)
	})
}

// RemoveRole treats a deleted role as already removed
func (p *Platform) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return p.call(ctx, "remove role", func(opt discordgo.RequestOption) error {
		err := p.session.GuildMemberRoleRemove(guildID, userID, roleID, opt)
		if restCode(err) == discordgo.ErrCodeUnknownRole {
			return nil
		}
		return err
	})
}

func (p *Platform) Ban(ctx context.Context, guildID, userID, reason string) error {
	return p.call(ctx, "ban", func(opt discordgo.RequestOption) error {
		return p.session.GuildBanCreateWithReason(guildID, userID, reason, 0, opt)
	})
}

// Unban treats an unknown ban as already lifted
func (p *Platform) Unban(ctx context.Context, guildID, userID string) error {
	return p.call(ctx, "unban", func(opt discordgo.RequestOption) error {
		err := p.session.GuildBanDelete(guildID, userID, opt)
		if restCode(err) == discordgo.ErrCodeUnknownBan {
			return nil
		}
		return err
	})
}

// Kick removes a member without recording a sanction
func (p *Platform) Kick(ctx context.Context, guildID, userID, reason string) error {
	return p.call(ctx, "kick", func(opt discordgo.RequestOption) error {
		return p.session.GuildMemberDeleteWithReason(guildID, userID, reason, opt)
	})
}

func (p *Platform) SendDM(ctx context.Context, userID, content string) error {
	var ch *discordgo.Channel
	err := p.call(ctx, "dm channel", func(opt discordgo.RequestOption) (err error) {
		ch, err = p.session.UserChannelCreate(userID, opt)
		return err
	})
	if err != nil {
		return err
	}
	return p.SendMessage(ctx, ch.ID, content)
}

// EnsureChannel finds a text channel by name, creating it visible only to
// the bot when missing
func (p *Platform) EnsureChannel(ctx context.Context, guildID, name string) (string, error) {
	var channels []*discordgo.Channel
	err := p.call(ctx, "channels", func(opt discordgo.RequestOption) (err error) {
		channels, err = p.session.GuildChannels(guildID, opt)
		return err
	})
	if err != nil {
		return "", err
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && strings.EqualFold(ch.Name, name) {
			return ch.ID, nil
		}
	}

	overwrites := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: p.session.State.User.ID, Type: discordgo.PermissionOverwriteTypeMember, Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages},
	}
	var ch *discordgo.Channel
	err = p.call(ctx, "create channel", func(opt discordgo.RequestOption) (err error) {
		ch, err = p.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
			Name:                 name,
			Type:                 discordgo.ChannelTypeGuildText,
			PermissionOverwrites: overwrites,
		}, opt)
		return err
	})
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

func (p *Platform) SendMessage(ctx context.Context, channelID, content string) error {
	return p.call(ctx, "send message", func(opt discordgo.RequestOption) error {
		_, err := p.session.ChannelMessageSend(channelID, content, opt)
		return err
	})
}

// DeleteMessage removes a message, used by the content filter
func (p *Platform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return p.call(ctx, "delete message", func(opt discordgo.RequestOption) error {
		return p.session.ChannelMessageDelete(channelID, messageID, opt)
	})
}

// toMember computes the hierarchy position and effective guild permissions
func toMember(g *discordgo.Guild, m *discordgo.Member) sanctions.Member {
	out := sanctions.Member{Roles: m.Roles}
	if m.User != nil {
		out.ID = m.User.ID
		out.Bot = m.User.Bot
	}

	byID := make(map[string]*discordgo.Role, len(g.Roles))
	for _, r := range g.Roles {
		byID[r.ID] = r
	}
	if everyone, ok := byID[g.ID]; ok {
		out.Permissions = everyone.Permissions
	}
	for _, id := range m.Roles {
		r, ok := byID[id]
		if !ok {
			continue
		}
		out.Permissions |= r.Permissions
		if r.Position > out.TopRolePosition {
			out.TopRolePosition = r.Position
		}
	}
	if out.ID != "" && out.ID == g.OwnerID {
		out.Permissions |= discordgo.PermissionAll
	}
	return out
}
