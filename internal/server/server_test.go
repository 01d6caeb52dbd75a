package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-heatmap/internal/config"
	"github.com/tartampluch/go-heatmap/internal/heatmap"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

// steppingClock is a clock the test moves forward.
type steppingClock struct {
	now atomic.Pointer[time.Time]
}

func newSteppingClock(t time.Time) *steppingClock {
	c := &steppingClock{}
	c.now.Store(&t)
	return c
}

func (c *steppingClock) Now() time.Time { return *c.now.Load() }

func (c *steppingClock) Advance(d time.Duration) {
	next := c.Now().Add(d)
	c.now.Store(&next)
}

var testToday = fixedClock(time.Date(2024, time.March, 24, 9, 0, 0, 0, time.Local))

func sampleStore() *heatmap.YearData {
	store := heatmap.NewYearData()
	store.Add(heatmap.CivilDate(2024, time.March, 18), 1)
	store.Add(heatmap.CivilDate(2024, time.March, 19), 3)
	return store
}

func get(t *testing.T, srv *HeatmapServer, target string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.handleHeatmapRequest(w, req)
	return w.Result()
}

// TestHandler_ServingContent checks headers and the rendered grid.
func TestHandler_ServingContent(t *testing.T) {
	srv := NewHeatmapServer("0", testToday)
	srv.Update(sampleStore())

	resp := get(t, srv, "/?range=20240318-20240324", nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeTextPlain, resp.Header.Get(config.HeaderContentType))
	assert.Equal(t, config.MimeNoSniff, resp.Header.Get(config.HeaderXContentType))
	assert.Contains(t, resp.Header.Get(config.HeaderCacheControl), "no-cache")
	assert.NotEmpty(t, resp.Header.Get(config.HeaderETag))
	assert.NotEmpty(t, resp.Header.Get(config.HeaderLastModified))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, strings.Repeat(" ", 14)+" |   2024\n"+" + @ . . . . . |\n", string(body))
}

func TestHandler_Queries(t *testing.T) {
	srv := NewHeatmapServer("0", testToday)
	srv.Update(sampleStore())

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantLines  int
	}{
		{"Default range", "/", http.StatusOK, 1 + 12},
		{"Whole year", "/?year=2024", http.StatusOK, 1 + 53},
		{"Open left", "/?range=_-20240324", http.StatusOK, 1 + 12},
		{"Range and year", "/?range=20240101&year=2024", http.StatusBadRequest, 0},
		{"Bad year", "/?year=abc", http.StatusBadRequest, 0},
		{"Inverted", "/?range=20240324-20240101", http.StatusBadRequest, 0},
		{"Malformed", "/?range=2024", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, srv, tt.target, nil)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.wantLines, strings.Count(string(body), "\n"))
			}
		})
	}
}

// TestHandler_Caching verifies ETag and If-Modified-Since revalidation.
func TestHandler_Caching(t *testing.T) {
	srv := NewHeatmapServer("0", testToday)
	srv.Update(sampleStore())

	const target = "/?range=20240101-20240324"
	first := get(t, srv, target, nil)
	etag := first.Header.Get(config.HeaderETag)
	lastModified := first.Header.Get(config.HeaderLastModified)
	_ = first.Body.Close()
	require.NotEmpty(t, etag, "Server must provide an ETag")

	require.NotEmpty(t, lastModified, "a closed range carries Last-Modified")

	byETag := get(t, srv, target, map[string]string{config.HeaderIfNoneMatch: etag})
	defer func() { _ = byETag.Body.Close() }()
	assert.Equal(t, http.StatusNotModified, byETag.StatusCode)
	body, _ := io.ReadAll(byETag.Body)
	assert.Empty(t, body, "Body must be empty on 304 Not Modified")

	byDate := get(t, srv, target, map[string]string{config.HeaderIfModifiedSince: lastModified})
	defer func() { _ = byDate.Body.Close() }()
	assert.Equal(t, http.StatusNotModified, byDate.StatusCode)

	// A different range yields a different body, hence a different ETag.
	other := get(t, srv, "/?year=2024", nil)
	defer func() { _ = other.Body.Close() }()
	assert.NotEqual(t, etag, other.Header.Get(config.HeaderETag))
}

// TestHandler_ETagTakesPrecedence checks that a stale ETag is not rescued by
// a matching If-Modified-Since.
func TestHandler_ETagTakesPrecedence(t *testing.T) {
	srv := NewHeatmapServer("0", testToday)
	srv.Update(sampleStore())

	const target = "/?range=20240101-20240324"
	first := get(t, srv, target, nil)
	lastModified := first.Header.Get(config.HeaderLastModified)
	_ = first.Body.Close()

	resp := get(t, srv, target, map[string]string{
		config.HeaderIfNoneMatch:     `"stale"`,
		config.HeaderIfModifiedSince: lastModified,
	})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestHandler_DayChange serves an open-ended range across midnight: the
// validators obtained yesterday must not yield a 304 today.
func TestHandler_DayChange(t *testing.T) {
	clock := newSteppingClock(time.Date(2024, time.March, 24, 23, 0, 0, 0, time.Local))
	srv := NewHeatmapServer("0", clock)
	srv.Update(sampleStore())

	const target = "/?range=20240318-_"
	first := get(t, srv, target, nil)
	etag := first.Header.Get(config.HeaderETag)
	oldBody, _ := io.ReadAll(first.Body)
	_ = first.Body.Close()
	assert.Empty(t, first.Header.Get(config.HeaderLastModified), "clock-dependent pages have no Last-Modified")

	clock.Advance(24 * time.Hour)

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"Old ETag", map[string]string{config.HeaderIfNoneMatch: etag}},
		{"Old ETag and date", map[string]string{
			config.HeaderIfNoneMatch:     etag,
			config.HeaderIfModifiedSince: time.Now().UTC().Format(http.TimeFormat),
		}},
		{"Date only", map[string]string{config.HeaderIfModifiedSince: time.Now().UTC().Format(http.TimeFormat)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, srv, target, tt.headers)
			defer func() { _ = resp.Body.Close() }()

			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.NotEqual(t, etag, resp.Header.Get(config.HeaderETag))
			body, _ := io.ReadAll(resp.Body)
			assert.NotEqual(t, string(oldBody), string(body))
		})
	}
}

func TestHandler_Head(t *testing.T) {
	srv := NewHeatmapServer("0", testToday)
	srv.Update(sampleStore())

	req := httptest.NewRequest(http.MethodHead, "/", nil)
	w := httptest.NewRecorder()
	srv.handleHeatmapRequest(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(config.HeaderETag))
	assert.Empty(t, w.Body.String())
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	srv := NewHeatmapServer("0", testToday)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()
	srv.handleHeatmapRequest(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, config.AllowedMethods, w.Header().Get(config.HeaderAllow))
}

// TestHandler_Initializing verifies the 503 behavior before the first Update.
func TestHandler_Initializing(t *testing.T) {
	srv := NewHeatmapServer("0", testToday)

	resp := get(t, srv, "/", nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, config.RetryAfterSeconds, resp.Header.Get(config.HeaderRetryAfter))
}

// TestServer_RaceCondition swaps snapshots while readers render. Run with -race.
func TestServer_RaceCondition(t *testing.T) {
	srv := NewHeatmapServer("0", testToday)
	var wg sync.WaitGroup
	end := time.Now().Add(300 * time.Millisecond)

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				srv.Update(sampleStore())
				time.Sleep(time.Microsecond)
			}
		}()
	}

	for r := 0; r < 16; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				w := httptest.NewRecorder()
				srv.handleHeatmapRequest(w, req)

				if w.Code != http.StatusOK && w.Code != http.StatusServiceUnavailable {
					t.Errorf("Unexpected status code during race test: %d", w.Code)
				}
			}
		}()
	}

	wg.Wait()
}

func TestServer_PortRequired(t *testing.T) {
	err := NewHeatmapServer("", nil).Start(context.Background())
	assert.ErrorContains(t, err, config.ErrPortRequired)
}

// TestServer_Lifecycle binds a real listener and shuts it down gracefully.
func TestServer_Lifecycle(t *testing.T) {
	const port = "18099"

	srv := NewHeatmapServer(port, testToday)
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)

	go func() {
		errChan <- srv.Start(ctx)
	}()

	url := "http://127.0.0.1:" + port + "/"

	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, 2*time.Second, 50*time.Millisecond, "Server failed to bind/listen in time")

	resp, err := http.Get(url)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()

	srv.Update(sampleStore())

	resp, err = http.Get(url + "?year=2024")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "|   2024")

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err, "Server should shutdown gracefully without error")
	case <-time.After(5 * time.Second):
		t.Fatal("Server shutdown timed out")
	}
}
