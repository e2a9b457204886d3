package archive

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
)

// RandomUserAgent picks a random entry from the top-user-agents list.
// Any failure falls back to the configured default agent; snapshot fetching
// never fails because the rotation list was unavailable.
func (c *Client) RandomUserAgent(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.UserAgentsURL, nil)
	if err != nil {
		return c.UserAgent
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		slog.Warn("failed to fetch top user agents", "error", err)
		return c.UserAgent
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("failed to fetch top user agents", "status", resp.StatusCode)
		return c.UserAgent
	}

	var agents []string
	if err := json.NewDecoder(resp.Body).Decode(&agents); err != nil || len(agents) == 0 {
		slog.Warn("unusable top user agents list", "error", err)
		return c.UserAgent
	}

	return agents[rand.IntN(len(agents))]
}
