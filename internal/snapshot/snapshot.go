// Package snapshot turns URLs into normalized, diff-ready documents. It owns
// the fetch -> clean -> beautify -> escape pipeline and caches results so
// repeated comparisons of the same snapshot do not refetch it.
package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/waydiffer/waydiffer/internal/archive"
	"github.com/waydiffer/waydiffer/internal/beautify"
	"github.com/waydiffer/waydiffer/internal/pubsub"
)

// Mode selects how fetched content is normalized before diffing.
type Mode string

const (
	// ModeSource compares the document source, beautified per content type.
	ModeSource Mode = "source"

	// ModeText compares the readable text of HTML documents, extracted as
	// markdown.
	ModeText Mode = "text"
)

func (m Mode) IsValid() bool {
	return m == ModeSource || m == ModeText
}

// Snapshot is one normalized document ready for comparison.
type Snapshot struct {
	ID          string              `json:"id"`
	URL         string              `json:"url"`
	Mode        Mode                `json:"mode"`
	ContentType archive.ContentType `json:"contentType"`
	Body        string              `json:"body"`
	FetchedAt   time.Time           `json:"fetchedAt"`
}

const EventResolved pubsub.EventType = "snapshot_resolved"

// Cache persists resolved snapshots between runs. Implemented by the app's
// blob storage.
type Cache interface {
	Get(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool)
	Put(ctx context.Context, key string, data []byte) error
}

type Service interface {
	pubsub.Subscriber[Snapshot]

	Resolve(ctx context.Context, url string, mode Mode) (Snapshot, error)
	Shutdown()
}

type service struct {
	client   *archive.Client
	cache    Cache
	cacheAge time.Duration
	broker   *pubsub.Broker[Snapshot]
}

// NewService builds a snapshot service. cache may be nil, in which case
// every Resolve fetches.
func NewService(client *archive.Client, cache Cache, cacheAge time.Duration) Service {
	return &service{
		client:   client,
		cache:    cache,
		cacheAge: cacheAge,
		broker:   pubsub.NewBroker[Snapshot](),
	}
}

func (s *service) Resolve(ctx context.Context, url string, mode Mode) (Snapshot, error) {
	if !mode.IsValid() {
		return Snapshot{}, fmt.Errorf("invalid snapshot mode: %q", mode)
	}

	key := cacheKey(url, mode)
	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, key, s.cacheAge); ok {
			var snap Snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				slog.Debug("snapshot cache hit", "url", url, "mode", mode)
				return snap, nil
			}
			slog.Warn("discarding unreadable cached snapshot", "url", url)
		}
	}

	doc, err := s.client.Fetch(ctx, url)
	if err != nil {
		return Snapshot{}, err
	}

	body, err := normalize(doc, mode)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		ID:          uuid.New().String(),
		URL:         url,
		Mode:        mode,
		ContentType: doc.Type,
		Body:        body,
		FetchedAt:   time.Now(),
	}

	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			if err := s.cache.Put(ctx, key, data); err != nil {
				slog.Warn("failed to cache snapshot", "url", url, "error", err)
			}
		}
	}

	s.broker.Publish(EventResolved, snap)
	return snap, nil
}

// normalize beautifies the document per content type and escapes markup once
// so the diff output can embed it directly. CSS and JS bodies carry no markup
// worth escaping and are diffed as-is, matching their reflowed source.
func normalize(doc archive.Document, mode Mode) (string, error) {
	if mode == ModeText {
		if doc.Type != archive.TypeHTML {
			return "", fmt.Errorf("text mode requires an html document, got %s: %w",
				doc.Type, archive.ErrUnsupportedType)
		}
		text, err := beautify.Markdown(doc.Body)
		if err != nil {
			return "", err
		}
		return html.EscapeString(text), nil
	}

	switch doc.Type {
	case archive.TypeHTML:
		cleaned, err := archive.CleanHTML(doc.Body)
		if err != nil {
			return "", err
		}
		pretty, err := beautify.HTML(cleaned)
		if err != nil {
			return "", err
		}
		return html.EscapeString(pretty), nil
	case archive.TypeCSS:
		return beautify.CSS(doc.Body), nil
	case archive.TypeJS:
		return beautify.JS(doc.Body), nil
	default:
		return "", fmt.Errorf("%w: %s", archive.ErrUnsupportedType, doc.Type)
	}
}

func (s *service) Subscribe(ctx context.Context) <-chan pubsub.Event[Snapshot] {
	return s.broker.Subscribe(ctx)
}

func (s *service) Shutdown() {
	s.broker.Shutdown()
}

func cacheKey(url string, mode Mode) string {
	sum := sha256.Sum256([]byte(url + "|" + string(mode)))
	return "snapshots/" + hex.EncodeToString(sum[:])
}
