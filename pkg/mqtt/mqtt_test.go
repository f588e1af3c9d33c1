package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

type recordingClient struct {
	topic   string
	payload interface{}
}

func (r *recordingClient) Publish(topic string, payload interface{}) error {
	r.topic = topic
	r.payload = payload
	return nil
}

func TestEventPublisherTopicAndPayload(t *testing.T) {
	rc := &recordingClient{}
	p := &EventPublisher{client: rc}
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), sanctions.Event{
		Name:     models.EventIssued,
		Sanction: models.Sanction{ID: "s1", GuildID: "g1", SubjectID: "u1", Kind: models.KindMute, ExpiresAt: at.Add(time.Hour)},
		ActorID:  "mod",
		At:       at,
	})
	require.NoError(t, err)
	assert.Equal(t, "pancymod/sanctions/g1", rc.topic)

	raw, err := json.Marshal(rc.payload)
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "issued", got["event"])
	assert.Equal(t, "s1", got["sanctionId"])
	assert.Equal(t, "mute", got["kind"])
	assert.Equal(t, "2024-03-01T13:00:00Z", got["expiresAt"])
}

type fakeModeration struct {
	count int
	err   error
}

func (f *fakeModeration) Count(ctx context.Context, guildID, subjectID string) (int, error) {
	return f.count, f.err
}

func (f *fakeModeration) Sweep(ctx context.Context, guildID string) (sanctions.SweepReport, error) {
	return sanctions.SweepReport{GuildID: guildID, Due: 2}, f.err
}

func TestServeCountRequest(t *testing.T) {
	body := []byte(`{"correlationId":"c1","payload":{"guildId":"g1","subjectId":"u1"}}`)

	topic, resp, ok := serve("pancymod/request/sanctions/count", body, countHandler(&fakeModeration{count: 2}))
	require.True(t, ok)
	assert.Equal(t, "pancymod/response/sanctions/count/c1", topic)
	assert.Equal(t, "c1", resp.CorrelationID)
	assert.Equal(t, countResponse{Warnings: 2}, resp.Data)
	assert.Empty(t, resp.Error)
}

func TestServeReportsErrors(t *testing.T) {
	body := []byte(`{"correlationId":"c2","payload":{"guildId":"g1"}}`)

	_, resp, ok := serve("pancymod/request/sanctions/count", body, countHandler(&fakeModeration{}))
	require.True(t, ok)
	assert.Contains(t, resp.Error, "subjectId")

	_, resp, ok = serve("pancymod/request/sanctions/sweep", body, sweepHandler(&fakeModeration{err: errors.New("boom")}))
	require.True(t, ok)
	assert.Equal(t, "boom", resp.Error)
}

func TestServeDropsGarbage(t *testing.T) {
	_, _, ok := serve("pancymod/request/sanctions/count", []byte("not json"), countHandler(&fakeModeration{}))
	assert.False(t, ok)
}
