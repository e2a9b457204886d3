package history

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}}
}

func (s *memoryStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	return nil
}

func (s *memoryStore) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (s *memoryStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func TestCreateAssignsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemoryStore())
	defer svc.Shutdown()

	run, err := svc.Create(context.Background(), Run{
		OldURL: "http://web.archive.org/web/20240101/http://example.com/",
		NewURL: "http://example.com/",
		Mode:   "source",
		Lines:  12,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())
}

func TestUpdateRewritesRecord(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemoryStore())
	defer svc.Shutdown()

	run, err := svc.Create(context.Background(), Run{OldURL: "old", NewURL: "new", Mode: "source"})
	require.NoError(t, err)

	run.OutputPath = "/tmp/diff.html"
	_, err = svc.Update(context.Background(), run)
	require.NoError(t, err)

	runs, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "/tmp/diff.html", runs[0].OutputPath)
}

func TestUpdateRequiresID(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemoryStore())
	defer svc.Shutdown()

	_, err := svc.Update(context.Background(), Run{OldURL: "old", NewURL: "new"})
	assert.Error(t, err)
}

func TestListNewestFirst(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemoryStore())
	defer svc.Shutdown()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), Run{
			OldURL:    "old",
			NewURL:    "new",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	runs, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.True(t, runs[0].CreatedAt.After(runs[1].CreatedAt))
	assert.True(t, runs[1].CreatedAt.After(runs[2].CreatedAt))
}

func TestListLimit(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemoryStore())
	defer svc.Shutdown()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(context.Background(), Run{OldURL: "o", NewURL: "n"})
		require.NoError(t, err)
	}

	runs, err := svc.List(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestListSkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	require.NoError(t, store.Put(context.Background(), keyPrefix+"bad.json", []byte("{not json")))

	svc := NewService(store)
	defer svc.Shutdown()

	_, err := svc.Create(context.Background(), Run{OldURL: "o", NewURL: "n"})
	require.NoError(t, err)

	runs, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestCreatePublishesEvent(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemoryStore())
	defer svc.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := svc.Subscribe(ctx)

	run, err := svc.Create(context.Background(), Run{OldURL: "o", NewURL: "n"})
	require.NoError(t, err)

	select {
	case event := <-ch:
		assert.Equal(t, EventRunCreated, event.Type)
		assert.Equal(t, run.ID, event.Payload.ID)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for run event")
	}
}
