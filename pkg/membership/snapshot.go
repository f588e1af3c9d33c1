// Package membership keeps per-guild snapshots of known member ids.
//
// A snapshot is a hint, not truth: "absent" means the member was missing at the
// last refresh and should be confirmed against Discord before acting on it.
package membership

import "context"

// Presence is the answer a snapshot gives about one member
type Presence int

const (
	// Unknown means the guild has no loaded snapshot (never refreshed, or expired).
	Unknown Presence = iota
	Present
	Absent
)

func (p Presence) String() string {
	switch p {
	case Present:
		return "present"
	case Absent:
		return "absent"
	default:
		return "unknown"
	}
}

// Snapshot stores member id sets per guild.
// Add and Remove only touch guilds whose snapshot is loaded; Replace loads one.
type Snapshot interface {
	Lookup(ctx context.Context, guildID, userID string) (Presence, error)
	Add(ctx context.Context, guildID string, userIDs ...string) error
	Remove(ctx context.Context, guildID, userID string) error
	Replace(ctx context.Context, guildID string, userIDs []string) error
	Size(ctx context.Context, guildID string) (int, error)
}
