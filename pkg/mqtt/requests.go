package mqtt

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

// Request topics served by the bot
const (
	TopicCount = "sanctions/count"
	TopicSweep = "sanctions/sweep"
)

// Moderation is what the request topics expose of the sanction service
type Moderation interface {
	Count(ctx context.Context, guildID, subjectID string) (int, error)
	Sweep(ctx context.Context, guildID string) (sanctions.SweepReport, error)
}

type countRequest struct {
	GuildID   string `json:"guildId"`
	SubjectID string `json:"subjectId"`
}

type countResponse struct {
	Warnings int `json:"warnings"`
}

// ServeModeration answers warning counts and manual sweeps over MQTT
func ServeModeration(mc *MqttCommunicator, m Moderation) {
	mc.On(TopicCount, countHandler(m))
	mc.On(TopicSweep, sweepHandler(m))
}

func countHandler(m Moderation) RequestHandler {
	return func(payload json.RawMessage) (interface{}, error) {
		var req countRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		if req.GuildID == "" || req.SubjectID == "" {
			return nil, fmt.Errorf("guildId and subjectId are required")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		n, err := m.Count(ctx, req.GuildID, req.SubjectID)
		if err != nil {
			return nil, err
		}
		return countResponse{Warnings: n}, nil
	}
}

func sweepHandler(m Moderation) RequestHandler {
	return func(payload json.RawMessage) (interface{}, error) {
		var req countRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		if req.GuildID == "" {
			return nil, fmt.Errorf("guildId is required")
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return m.Sweep(ctx, req.GuildID)
	}
}
