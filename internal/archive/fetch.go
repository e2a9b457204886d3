package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// ContentType identifies how fetched content is normalized before diffing.
type ContentType string

const (
	TypeHTML ContentType = "html"
	TypeCSS  ContentType = "css"
	TypeJS   ContentType = "js"
)

var (
	// ErrGone covers 404s and the archive's 403 blocking responses.
	ErrGone = errors.New("snapshot does not exist or access was blocked")

	// ErrUnsupportedType is returned for content types we cannot diff.
	ErrUnsupportedType = errors.New("unsupported content type")

	// ErrEmptyContent is returned when a snapshot body is empty or too
	// short to be a real document once artifacts are stripped.
	ErrEmptyContent = errors.New("no content returned")
)

// Document is one fetched snapshot body, artifacts already stripped.
type Document struct {
	URL  string
	Type ContentType
	Body string
}

// Bodies shorter than this after stripping are treated as empty; the archive
// sometimes serves stub pages in place of real content.
const minContentLength = 50

var (
	// Everything from the archival footer comment on is wayback metadata,
	// not page content.
	archivedFooter = regexp.MustCompile(`(?:/\*|<!--)\s+FILE ARCHIVED ON`)

	// Rewrite prefixes the Wayback Machine injects into archived markup,
	// in both plain and backslash-escaped (inline JS) spellings. RE2 has
	// no lookbehind, so the quote-prefixed form is a second pattern that
	// re-emits the quote.
	wbmPrefix       = regexp.MustCompile(`(?:\\?/\\?/web\.archive\.org\\?/web\\?/\w+\\?/|https?:\\?/\\?/web\.archive\.org\\?/web\\?/\w+\\?/|\\?/web\\?/\w+\\?/https?:\\?/\\?/web\.archive\.org\\?/screenshot\\?/)`)
	wbmQuotedPrefix = regexp.MustCompile(`(["'])\\?/web\\?/\w+\\?/`)
)

// Fetch retrieves one snapshot with browser-like headers and a rotated user
// agent, and strips wayback artifacts from the body.
func (c *Client) Fetch(ctx context.Context, url string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, fmt.Errorf("building request for %s: %w", url, err)
	}

	// The archive 403s requests that do not look like a browser.
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", c.RandomUserAgent(ctx))
	req.Header.Set("Dnt", "1")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		return Document{}, fmt.Errorf("%s: %w", url, ErrGone)
	default:
		return Document{}, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", url, err)
	}

	content := StripArtifacts(string(body))
	if len(content) < minContentLength {
		return Document{}, fmt.Errorf("%s: %w", url, ErrEmptyContent)
	}

	contentType, err := typeFromHeader(resp.Header.Get("Content-Type"))
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", url, err)
	}

	return Document{URL: url, Type: contentType, Body: content}, nil
}

// StripArtifacts removes the Wayback Machine footer and rewrite-prefix URLs
// from archived content. Live pages pass through unchanged.
func StripArtifacts(content string) string {
	if loc := archivedFooter.FindStringIndex(content); loc != nil {
		content = content[:loc[0]]
	}
	content = strings.TrimSpace(content)
	content = wbmPrefix.ReplaceAllString(content, "")
	content = wbmQuotedPrefix.ReplaceAllString(content, "$1")
	return content
}

func typeFromHeader(header string) (ContentType, error) {
	switch {
	case strings.Contains(header, "text/html"):
		return TypeHTML, nil
	case strings.Contains(header, "text/css"):
		return TypeCSS, nil
	case strings.Contains(header, "application/javascript"),
		strings.Contains(header, "text/javascript"):
		return TypeJS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, header)
	}
}
