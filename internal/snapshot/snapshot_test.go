package snapshot

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waydiffer/waydiffer/internal/archive"
)

const testPage = `<html><head><title>Test</title></head><body>
<p>Some content that is comfortably longer than the minimum length check.</p>
</body></html>`

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, _ time.Duration) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[key]
	return data, ok
}

func (c *memoryCache) Put(_ context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func newTestService(t *testing.T) (Service, *httptest.Server, *int) {
	t.Helper()

	fetches := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/agents", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `["ua/1.0"]`)
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, testPage)
	})
	mux.HandleFunc("/app.js", func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Header().Set("Content-Type", "application/javascript")
		fmt.Fprint(w, `function f(){return "semicolons and braces everywhere";}`)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	client := &archive.Client{
		HTTP:          &http.Client{Timeout: 5 * time.Second},
		UserAgentsURL: ts.URL + "/agents",
		UserAgent:     "fallback/1.0",
		MaxMementos:   100,
	}

	svc := NewService(client, newMemoryCache(), time.Minute)
	t.Cleanup(svc.Shutdown)
	return svc, ts, &fetches
}

func TestResolveHTMLSource(t *testing.T) {
	t.Parallel()

	svc, ts, _ := newTestService(t)

	snap, err := svc.Resolve(context.Background(), ts.URL+"/page", ModeSource)
	require.NoError(t, err)

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, ModeSource, snap.Mode)
	assert.Equal(t, archive.TypeHTML, snap.ContentType)
	// Beautified then escaped exactly once.
	assert.Contains(t, snap.Body, "&lt;html&gt;")
	assert.Contains(t, snap.Body, "Some content")
	assert.NotContains(t, snap.Body, "<html>")
}

func TestResolveJS(t *testing.T) {
	t.Parallel()

	svc, ts, _ := newTestService(t)

	snap, err := svc.Resolve(context.Background(), ts.URL+"/app.js", ModeSource)
	require.NoError(t, err)

	assert.Equal(t, archive.TypeJS, snap.ContentType)
	// Reflowed, not escaped.
	assert.Contains(t, snap.Body, "function f() {")
	assert.Contains(t, snap.Body, "\n  return")
}

func TestResolveTextMode(t *testing.T) {
	t.Parallel()

	svc, ts, _ := newTestService(t)

	snap, err := svc.Resolve(context.Background(), ts.URL+"/page", ModeText)
	require.NoError(t, err)

	assert.Contains(t, snap.Body, "Some content")
	assert.NotContains(t, snap.Body, "&lt;p&gt;")
}

func TestResolveTextModeRejectsNonHTML(t *testing.T) {
	t.Parallel()

	svc, ts, _ := newTestService(t)

	_, err := svc.Resolve(context.Background(), ts.URL+"/app.js", ModeText)
	assert.ErrorIs(t, err, archive.ErrUnsupportedType)
}

func TestResolveUsesCache(t *testing.T) {
	t.Parallel()

	svc, ts, fetches := newTestService(t)

	first, err := svc.Resolve(context.Background(), ts.URL+"/page", ModeSource)
	require.NoError(t, err)
	second, err := svc.Resolve(context.Background(), ts.URL+"/page", ModeSource)
	require.NoError(t, err)

	assert.Equal(t, 1, *fetches)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolveInvalidMode(t *testing.T) {
	t.Parallel()

	svc, ts, _ := newTestService(t)

	_, err := svc.Resolve(context.Background(), ts.URL+"/page", Mode("binary"))
	assert.Error(t, err)
}

func TestResolvePublishesEvent(t *testing.T) {
	t.Parallel()

	svc, ts, _ := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := svc.Subscribe(ctx)

	_, err := svc.Resolve(context.Background(), ts.URL+"/page", ModeSource)
	require.NoError(t, err)

	select {
	case event := <-ch:
		assert.Equal(t, EventResolved, event.Type)
		assert.Equal(t, ts.URL+"/page", event.Payload.URL)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for snapshot event")
	}
}
