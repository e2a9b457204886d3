package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waydiffer/waydiffer/internal/app"
	"github.com/waydiffer/waydiffer/internal/config"
	"github.com/waydiffer/waydiffer/internal/history"
	"github.com/waydiffer/waydiffer/internal/logging"
)

const timeMapBody = `<http://example.com/>; rel="original",
<http://web.archive.org/web/20260101000000/http://example.com/>; rel="memento"; datetime="Thu, 01 Jan 2026 00:00:00 GMT",
<http://web.archive.org/web/20260301000000/http://example.com/>; rel="memento"; datetime="Sun, 01 Mar 2026 00:00:00 GMT",
`

func snapshotBody(heading string) string {
	return fmt.Sprintf(`<html><head><title>t</title></head><body>
<h1>%s</h1>
<p>filler text so the fetched body clears the minimum content length</p>
</body></html>`, heading)
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	// The logging service is process-global, so later tests see it already
	// initialized.
	_ = logging.InitService()

	mux := http.NewServeMux()
	mux.HandleFunc("/agents", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `["ua/1.0"]`)
	})
	mux.HandleFunc("/web/timemap/link/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, timeMapBody)
	})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, snapshotBody("before"))
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, snapshotBody("after"))
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		Data:       config.Data{Directory: t.TempDir()},
		WorkingDir: t.TempDir(),
		Archive: config.Archive{
			HistoryDays:    365 * 10,
			MaxMementos:    100,
			TimeoutSeconds: 5,
			TimeMapURL:     upstream.URL + "/web/timemap/link/",
			UserAgentsURL:  upstream.URL + "/agents",
			UserAgent:      "test/1.0",
			CacheMinutes:   1,
		},
		Server: config.Server{Host: "127.0.0.1", Port: 0},
	}

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)

	return New(a), upstream
}

func doRequest(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "waydiffer")
	assert.Contains(t, rec.Body.String(), "/api/mementos")
}

func TestMementos(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/mementos?url=http://example.com/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []mementoEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].URL, "web.archive.org")
	assert.NotEmpty(t, entries[0].Label)
}

func TestMementosValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/mementos", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/mementos?url=http://example.com/&days=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMementosFilter(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/mementos?url=http://example.com/&filter=03/01/2026", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []mementoEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].URL, "20260301")
}

func postForm(t *testing.T, s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return doRequest(t, s, req)
}

func TestDiff(t *testing.T) {
	s, upstream := newTestServer(t)

	rec := postForm(t, s, "/diff", url.Values{
		"old":  {upstream.URL + "/old"},
		"new":  {upstream.URL + "/new"},
		"mode": {"source"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="added"`)
	assert.Contains(t, rec.Body.String(), `class="deleted"`)
}

func TestDiffIdentical(t *testing.T) {
	s, upstream := newTestServer(t)

	rec := postForm(t, s, "/diff", url.Values{
		"old": {upstream.URL + "/old"},
		"new": {upstream.URL + "/old"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "identical")
}

func TestDiffValidation(t *testing.T) {
	s, upstream := newTestServer(t)

	rec := postForm(t, s, "/diff", url.Values{"old": {upstream.URL + "/old"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postForm(t, s, "/diff", url.Values{
		"old":  {upstream.URL + "/old"},
		"new":  {upstream.URL + "/new"},
		"mode": {"binary"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiffGoneSnapshot(t *testing.T) {
	s, upstream := newTestServer(t)

	rec := postForm(t, s, "/diff", url.Values{
		"old": {upstream.URL + "/missing"},
		"new": {upstream.URL + "/new"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	s, upstream := newTestServer(t)

	rec := postForm(t, s, "/diff", url.Values{
		"old": {upstream.URL + "/old"},
		"new": {upstream.URL + "/new"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/history?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var runs []history.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Identical)
}

func TestLogsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	logging.GetService().Create(context.Background(), logging.Log{Level: "info", Message: "hello"})

	rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/logs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello")
}
