package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostSendsEmbeds(t *testing.T) {
	var got discordgo.WebhookParams
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := Post(context.Background(), nil, srv.URL, Embed("title", "body", 0xFF0000))
	require.NoError(t, err)
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "title", got.Embeds[0].Title)
	assert.Equal(t, 0xFF0000, got.Embeds[0].Color)
	assert.Equal(t, Footer, got.Embeds[0].Footer.Text)
}

func TestPostRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := Post(context.Background(), srv.Client(), srv.URL, Embed("t", "d", 0))
	assert.ErrorContains(t, err, "429")
}
