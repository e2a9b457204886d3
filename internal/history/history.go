// Package history records past comparison runs so they can be listed again
// from the CLI and the web UI.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/waydiffer/waydiffer/internal/pubsub"
)

// Run is one recorded comparison.
type Run struct {
	ID         string    `json:"id"`
	OldURL     string    `json:"oldUrl"`
	NewURL     string    `json:"newUrl"`
	Mode       string    `json:"mode"`
	Lines      int       `json:"lines"`
	Identical  bool      `json:"identical"`
	OutputPath string    `json:"outputPath,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

const (
	EventRunCreated pubsub.EventType = "history_run_created"
	EventRunUpdated pubsub.EventType = "history_run_updated"

	keyPrefix = "history/"
)

// Store persists run records. Implemented by the app's blob storage.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

type Service interface {
	pubsub.Subscriber[Run]

	Create(ctx context.Context, run Run) (Run, error)
	Update(ctx context.Context, run Run) (Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
	Shutdown()
}

type service struct {
	store  Store
	broker *pubsub.Broker[Run]
}

func NewService(store Store) Service {
	return &service{
		store:  store,
		broker: pubsub.NewBroker[Run](),
	}
}

func (s *service) Create(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	data, err := json.Marshal(run)
	if err != nil {
		return Run{}, fmt.Errorf("encoding run: %w", err)
	}
	if err := s.store.Put(ctx, keyPrefix+run.ID+".json", data); err != nil {
		return Run{}, fmt.Errorf("storing run: %w", err)
	}

	s.broker.Publish(EventRunCreated, run)
	return run, nil
}

// Update re-persists an already recorded run, for fields that are only
// known after the run was created, like the saved artifact path.
func (s *service) Update(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		return Run{}, fmt.Errorf("cannot update a run without an id")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return Run{}, fmt.Errorf("encoding run: %w", err)
	}
	if err := s.store.Put(ctx, keyPrefix+run.ID+".json", data); err != nil {
		return Run{}, fmt.Errorf("storing run: %w", err)
	}

	s.broker.Publish(EventRunUpdated, run)
	return run, nil
}

// List returns up to limit runs, newest first. A non-positive limit returns
// everything.
func (s *service) List(ctx context.Context, limit int) ([]Run, error) {
	keys, err := s.store.List(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	runs := make([]Run, 0, len(keys))
	for _, key := range keys {
		data, err := s.store.Read(ctx, key)
		if err != nil {
			slog.Warn("skipping unreadable run record", "key", key, "error", err)
			continue
		}
		var run Run
		if err := json.Unmarshal(data, &run); err != nil {
			slog.Warn("skipping malformed run record", "key", key, "error", err)
			continue
		}
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *service) Subscribe(ctx context.Context) <-chan pubsub.Event[Run] {
	return s.broker.Subscribe(ctx)
}

func (s *service) Shutdown() {
	s.broker.Shutdown()
}
