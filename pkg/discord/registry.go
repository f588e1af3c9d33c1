package discord

import (
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// registry is a concurrent map from routing key to handler
type registry[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
}

func newRegistry[V any]() *registry[V] {
	return &registry[V]{entries: make(map[string]V)}
}

func (r *registry[V]) Set(key string, v V) {
	r.mu.Lock()
	r.entries[key] = v
	r.mu.Unlock()
}

func (r *registry[V]) Get(key string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

func (r *registry[V]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// CommandCollection routes slash commands by "name", "name.sub" or
// "name.group.sub"
type CommandCollection = registry[*Command]

// NewCommandCollection creates an empty collection
func NewCommandCollection() *CommandCollection {
	return newRegistry[*Command]()
}

// ComponentFunc handles a button, select menu or modal submission
type ComponentFunc func(ctx *CommandContext) error

// ComponentCollection routes components by the prefix of their custom id.
// A custom id "apply:role" is routed to the handler registered for "apply".
type ComponentCollection struct {
	byPrefix *registry[ComponentFunc]
}

// NewComponentCollection creates an empty collection
func NewComponentCollection() *ComponentCollection {
	return &ComponentCollection{byPrefix: newRegistry[ComponentFunc]()}
}

// Set registers fn for every custom id starting with prefix
func (cc *ComponentCollection) Set(prefix string, fn ComponentFunc) {
	cc.byPrefix.Set(prefix, fn)
}

// Get returns the handler for customID
func (cc *ComponentCollection) Get(customID string) (ComponentFunc, bool) {
	prefix, _, _ := strings.Cut(customID, ":")
	return cc.byPrefix.Get(prefix)
}

// commandName builds the routing key of a command, subcommand or group
func commandName(data discordgo.ApplicationCommandInteractionData) string {
	if len(data.Options) == 0 {
		return data.Name
	}
	opt := data.Options[0]
	switch opt.Type {
	case discordgo.ApplicationCommandOptionSubCommandGroup:
		if len(opt.Options) > 0 {
			return data.Name + "." + opt.Name + "." + opt.Options[0].Name
		}
	case discordgo.ApplicationCommandOptionSubCommand:
		return data.Name + "." + opt.Name
	}
	return data.Name
}
