// Package server exposes the rendered heatmap over HTTP as plain text.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/tartampluch/go-heatmap/internal/config"
	"github.com/tartampluch/go-heatmap/internal/heatmap"
)

// snapshot is an immutable store together with the time it was loaded.
type snapshot struct {
	store        *heatmap.YearData
	lastModified string // RFC1123 format required by HTTP headers
}

// HeatmapServer renders the heatmap for each request.
type HeatmapServer struct {
	// current is swapped atomically on reload; readers never lock.
	current atomic.Pointer[snapshot]
	Port    string
	Clock   heatmap.Clock
}

// NewHeatmapServer creates a new instance of the server.
func NewHeatmapServer(port string, clock heatmap.Clock) *HeatmapServer {
	if clock == nil {
		clock = heatmap.RealClock{}
	}
	return &HeatmapServer{
		Port:  port,
		Clock: clock,
	}
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *HeatmapServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteRoot, s.handleHeatmapRequest)

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      mux,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update atomically replaces the served store. The store must not be
// modified afterwards.
func (s *HeatmapServer) Update(store *heatmap.YearData) {
	s.current.Store(&snapshot{
		store:        store,
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	})

	slog.Debug(config.MsgStoreUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyYears, len(store.Years()),
	)
}

// handleHeatmapRequest renders the requested range with HTTP caching support.
func (s *HeatmapServer) handleHeatmapRequest(w http.ResponseWriter, r *http.Request) {
	// 1. Method Validation
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	// 2. Readiness Check
	snap := s.current.Load()
	if snap == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	// 3. Render
	// The body is rendered per request: the range may depend on today's date.
	body, usesToday, err := s.render(snap.store, r)
	if err != nil {
		status := http.StatusInternalServerError
		msg := config.HTTPMsgInternalErr
		switch heatmap.KindOf(err) {
		case heatmap.KindParse, heatmap.KindWrongDate, heatmap.KindNoData:
			status = http.StatusBadRequest
			msg = err.Error()
		}
		slog.Warn(config.MsgRequestFailed,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyStatus, status,
			config.LogKeyError, err,
		)
		http.Error(w, msg, status)
		return
	}

	hash := sha256.Sum256(body)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	// 4. Set Response Headers
	w.Header().Set(config.HeaderContentType, config.MimeTextPlain)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, etag)

	// A page that follows the clock changes at midnight although the snapshot
	// did not, so the load time is not a valid Last-Modified for it.
	lastModified := ""
	if !usesToday {
		lastModified = snap.lastModified
		w.Header().Set(config.HeaderLastModified, lastModified)
	}

	// 5. Check Conditional Headers
	if notModified(r, etag, lastModified) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	// 6. Serve Content
	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(body)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}

// notModified evaluates If-None-Match, then If-Modified-Since. The latter is
// ignored whenever the former is present (RFC 9110, section 13.1.3).
func notModified(r *http.Request, etag, lastModified string) bool {
	if match := r.Header.Get(config.HeaderIfNoneMatch); match != "" {
		return match == etag
	}

	since := r.Header.Get(config.HeaderIfModifiedSince)
	if since == "" || lastModified == "" {
		return false
	}
	clientTime, err := time.Parse(http.TimeFormat, since)
	if err != nil {
		return false
	}
	serverTime, err := time.Parse(http.TimeFormat, lastModified)
	if err != nil {
		return false
	}
	return !serverTime.After(clientTime)
}

// render resolves the range query parameters and draws the plain heatmap.
// The boolean reports whether the body depends on the server clock.
func (s *HeatmapServer) render(store *heatmap.YearData, r *http.Request) ([]byte, bool, error) {
	q := heatmap.RangeQuery{Range: r.URL.Query().Get(config.QueryParamRange)}
	if raw := r.URL.Query().Get(config.QueryParamYear); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false, heatmap.Wrap(heatmap.KindParse, fmt.Errorf("%s: %w", config.ErrYearValue, err))
		}
		q.Year, q.HasYear = year, true
	}

	from, to, err := heatmap.ResolveRange(q, store, s.Clock)
	if err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	if err := heatmap.NewRenderer(store, heatmap.PlainStyler{}).RenderDateRange(&buf, from, to); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), q.UsesToday(), nil
}
