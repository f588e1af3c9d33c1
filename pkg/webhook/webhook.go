// Package webhook posts embeds to Discord webhook URLs. The logger, the
// anti-crash handler and the web server all report through it.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
)

// Footer is stamped on every embed that does not set its own
const Footer = "PancyStudio | PancyMod Go"

// DefaultClient is used when Post is given a nil client
var DefaultClient = &http.Client{Timeout: 10 * time.Second}

// Embed builds a timestamped embed with the shared footer
func Embed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: Footer},
	}
}

// Post sends embeds to url. A non-2xx answer is an error.
func Post(ctx context.Context, client *http.Client, url string, embeds ...*discordgo.MessageEmbed) error {
	if client == nil {
		client = DefaultClient
	}
	body, err := json.Marshal(discordgo.WebhookParams{Embeds: embeds})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook answered %s", resp.Status)
	}
	return nil
}
