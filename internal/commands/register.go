// Package commands provides a registry for organizing bot commands.
// Commands are organized in subdirectories by category (mod, staff, utils).
package commands

import (
	"github.com/PancyStudios/PancyModGo/internal/commands/mod"
	"github.com/PancyStudios/PancyModGo/internal/commands/staff"
	"github.com/PancyStudios/PancyModGo/internal/commands/utils"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// Modules are the dependencies of each command category
type Modules struct {
	Mod   *mod.Module
	Staff *staff.Module
	Utils *utils.Module
}

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient, m Modules) {
	// Utility commands (/utils ping, /utils status, ...)
	utils.RegisterUtilsCommands(client, m.Utils)

	// Moderation commands (/warn, /mute, /ban, their lifts, /warnings, /kick, /settings)
	mod.RegisterModCommands(client, m.Mod)

	// Staff applications (/apply)
	staff.RegisterStaffCommands(client, m.Staff)
}
