package mqtt

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

// TopicPrefix is the root of the sanction event topics
const TopicPrefix = "pancymod/sanctions/"

// SanctionEvent is the payload published for every lifecycle transition
type SanctionEvent struct {
	Event      models.HistoryEvent `json:"event"`
	SanctionID string              `json:"sanctionId"`
	GuildID    string              `json:"guildId"`
	SubjectID  string              `json:"subjectId"`
	ActorID    string              `json:"actorId,omitempty"`
	Kind       models.SanctionKind `json:"kind"`
	ExpiresAt  time.Time           `json:"expiresAt"`
	At         time.Time           `json:"at"`
}

// publisher is the slice of MqttCommunicator the event publisher needs
type publisher interface {
	Publish(topic string, payload interface{}) error
}

// EventPublisher publishes sanction events to pancymod/sanctions/<guildID>
type EventPublisher struct {
	client publisher
}

var _ sanctions.Publisher = (*EventPublisher)(nil)

// NewEventPublisher creates a publisher over mc
func NewEventPublisher(mc *MqttCommunicator) *EventPublisher {
	return &EventPublisher{client: mc}
}

func (p *EventPublisher) Publish(ctx context.Context, e sanctions.Event) error {
	return p.client.Publish(TopicPrefix+e.Sanction.GuildID, SanctionEvent{
		Event:      e.Name,
		SanctionID: e.Sanction.ID,
		GuildID:    e.Sanction.GuildID,
		SubjectID:  e.Sanction.SubjectID,
		ActorID:    e.ActorID,
		Kind:       e.Sanction.Kind,
		ExpiresAt:  e.Sanction.ExpiresAt,
		At:         e.At,
	})
}
