// Package archive talks to the Wayback Machine: memento discovery through
// the TimeMap service and snapshot fetching with archive artifacts stripped
// out of the returned content.
package archive

import (
	"net/http"

	"github.com/waydiffer/waydiffer/internal/config"
)

// Client fetches mementos and snapshots. The zero value is not usable;
// construct one with NewClient or fill in every field.
type Client struct {
	HTTP          *http.Client
	TimeMapURL    string // base URL, target appended
	UserAgentsURL string
	UserAgent     string // fallback when the rotation list is unavailable
	MaxMementos   int
}

func NewClient(cfg config.Archive) *Client {
	return &Client{
		HTTP:          &http.Client{Timeout: cfg.Timeout()},
		TimeMapURL:    cfg.TimeMapURL,
		UserAgentsURL: cfg.UserAgentsURL,
		UserAgent:     cfg.UserAgent,
		MaxMementos:   cfg.MaxMementos,
	}
}
