package archive

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Memento is one archived snapshot of a URL.
type Memento struct {
	URL  string    `json:"url"`
	Time time.Time `json:"time"`
}

// Label formats the memento timestamp for display.
func (m Memento) Label() string {
	return m.Time.Format("01/02/2006 - 03:04 PM")
}

// TimeMap lines look like:
// <http://web.archive.org/web/.../http://example.com/>; rel="memento"; datetime="Fri, 01 Mar 2024 00:00:00 GMT",
var timeMapLine = regexp.MustCompile(`^<([^>]+)>; rel="([^"]+)"; datetime="([^"]+)"`)

// Mementos lists archived snapshots of target no older than historyDays,
// capped at the client's MaxMementos. TimeMap entries are ordered oldest
// first; that order is preserved.
func (c *Client) Mementos(ctx context.Context, target string, historyDays int) ([]Memento, error) {
	cutoff := time.Now().AddDate(0, 0, -historyDays)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.TimeMapURL+target, nil)
	if err != nil {
		return nil, fmt.Errorf("building timemap request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching timemap for %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching timemap for %s: unexpected status %d", target, resp.StatusCode)
	}

	var mementos []Memento
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		match := timeMapLine.FindStringSubmatch(scanner.Text())
		if match == nil || match[2] != "memento" {
			continue
		}

		when, err := time.Parse(time.RFC1123, match[3])
		if err != nil {
			slog.Warn("skipping memento with malformed datetime", "line", scanner.Text(), "error", err)
			continue
		}
		if when.Before(cutoff) {
			continue
		}

		mementos = append(mementos, Memento{URL: match[1], Time: when})
		if len(mementos) >= c.MaxMementos {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading timemap for %s: %w", target, err)
	}

	return mementos, nil
}

// Filter narrows mementos to those fuzzy-matching the query against either
// the memento URL or its formatted timestamp. An empty query matches all.
func Filter(mementos []Memento, query string) []Memento {
	if query == "" {
		return mementos
	}

	var matched []Memento
	for _, m := range mementos {
		if fuzzy.MatchFold(query, m.URL) || fuzzy.MatchFold(query, m.Label()) {
			matched = append(matched, m)
		}
	}
	return matched
}
