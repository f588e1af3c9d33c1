package discord

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// EventHandler attaches gateway handlers to the session and remembers how to
// detach them
type EventHandler struct {
	client  *ExtendedClient
	mu      sync.Mutex
	names   []string
	removes []func()
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(client *ExtendedClient) *EventHandler {
	return &EventHandler{client: client}
}

// LoadEvents reports what was registered before the gateway opens
func (eh *EventHandler) LoadEvents() error {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	logger.System(fmt.Sprintf("Eventos cargados: %d %v.", len(eh.names), eh.names), "EventHandler")
	return nil
}

// RegisterEvent attaches handler, which must be a func(*discordgo.Session, *discordgo.<Event>)
// literal or method value; named func types are ignored by discordgo.
func (eh *EventHandler) RegisterEvent(name string, handler interface{}) {
	remove := eh.client.Session.AddHandler(handler)
	eh.mu.Lock()
	eh.names = append(eh.names, name)
	eh.removes = append(eh.removes, remove)
	eh.mu.Unlock()
	logger.Debug("Evento '"+name+"' registrado", "EventHandler")
}

// RemoveAll detaches every registered handler
func (eh *EventHandler) RemoveAll() {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	for _, remove := range eh.removes {
		remove()
	}
	eh.names, eh.removes = nil, nil
}

func (eh *EventHandler) OnReady(fn func(*discordgo.Session, *discordgo.Ready)) {
	eh.RegisterEvent("Ready", fn)
}

func (eh *EventHandler) OnGuildCreate(fn func(*discordgo.Session, *discordgo.GuildCreate)) {
	eh.RegisterEvent("GuildCreate", fn)
}

func (eh *EventHandler) OnGuildDelete(fn func(*discordgo.Session, *discordgo.GuildDelete)) {
	eh.RegisterEvent("GuildDelete", fn)
}

func (eh *EventHandler) OnGuildMemberAdd(fn func(*discordgo.Session, *discordgo.GuildMemberAdd)) {
	eh.RegisterEvent("GuildMemberAdd", fn)
}

func (eh *EventHandler) OnGuildMemberRemove(fn func(*discordgo.Session, *discordgo.GuildMemberRemove)) {
	eh.RegisterEvent("GuildMemberRemove", fn)
}

func (eh *EventHandler) OnMessageCreate(fn func(*discordgo.Session, *discordgo.MessageCreate)) {
	eh.RegisterEvent("MessageCreate", fn)
}
