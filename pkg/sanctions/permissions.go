package sanctions

import (
	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

const permAdministrator = discordgo.PermissionAdministrator

// MutedPermissions are denied to the mute role in every channel
const MutedPermissions = discordgo.PermissionSendMessages |
	discordgo.PermissionAddReactions |
	discordgo.PermissionSendMessagesInThreads |
	discordgo.PermissionVoiceSpeak

// ModeratorPermission is the permission a moderator needs to issue or lift kind
func ModeratorPermission(kind models.SanctionKind) int64 {
	if kind == models.KindBan {
		return discordgo.PermissionBanMembers
	}
	return discordgo.PermissionModerateMembers
}

// BotPermission is the permission the bot itself needs to apply kind
func BotPermission(kind models.SanctionKind) int64 {
	switch kind {
	case models.KindBan:
		return discordgo.PermissionBanMembers
	case models.KindMute:
		return discordgo.PermissionManageRoles
	default:
		return 0
	}
}
