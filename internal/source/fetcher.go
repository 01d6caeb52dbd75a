package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/tartampluch/go-heatmap/internal/config"
	"github.com/tartampluch/go-heatmap/internal/heatmap"
)

// ErrFeedTooLarge reports a calendar feed longer than the fetcher accepts.
var ErrFeedTooLarge = errors.New(config.ErrFeedTooLarge)

// ICalFetcher downloads a remote iCalendar feed.
type ICalFetcher interface {
	Fetch(ctx context.Context, url, user, pass string) (io.ReadCloser, error)
}

// FeedFetcher downloads calendar feeds over HTTP(S).
type FeedFetcher struct {
	Client *http.Client
	// MaxBody is the largest feed accepted, in bytes.
	MaxBody int64
}

// NewFeedFetcher returns a fetcher with the default timeout and size cap.
func NewFeedFetcher() *FeedFetcher {
	return &FeedFetcher{
		Client:  &http.Client{Timeout: config.HTTPTimeout},
		MaxBody: config.MaxFetchBodySize,
	}
}

// Fetch opens the feed at feedURL. The returned body fails with
// ErrFeedTooLarge as soon as it grows past MaxBody.
func (f *FeedFetcher) Fetch(ctx context.Context, feedURL, user, pass string) (io.ReadCloser, error) {
	req, logURL, err := newFeedRequest(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}

	// Query strings often carry access tokens and stay out of the logs.
	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompFetcher),
		slog.String(config.LogKeyURL, logURL),
	)
	log.Debug(config.MsgFetchStart)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, heatmap.Wrap(heatmap.KindIO, fmt.Errorf("%s: %w", config.ErrFeedNetwork, err))
	}

	if err := f.accept(resp); err != nil {
		_ = resp.Body.Close()
		log.Warn(config.MsgFetchRejected,
			slog.Int(config.LogKeyStatus, resp.StatusCode),
			slog.Any(config.LogKeyError, err),
		)
		return nil, heatmap.Wrap(heatmap.KindIO, err)
	}

	log.Info(config.MsgFetchBody, slog.Int64(config.LogKeyLength, resp.ContentLength))
	return &cappedBody{body: resp.Body, left: f.MaxBody}, nil
}

func newFeedRequest(ctx context.Context, feedURL string) (*http.Request, string, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return nil, "", heatmap.Wrap(heatmap.KindParse, fmt.Errorf("%s: %w", config.ErrInvalidURL, err))
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, "", heatmap.Wrap(heatmap.KindParse, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", heatmap.Wrap(heatmap.KindIO, fmt.Errorf("%s: %w", config.ErrFeedRequest, err))
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)

	return req, u.Scheme + config.SchemeSeparator + u.Host + u.Path, nil
}

// accept checks the status, the announced length and the media type of resp.
// An unlabeled body is let through; the decoder judges it.
func (f *FeedFetcher) accept(resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", config.ErrFeedStatus, resp.Status)
	}
	if resp.ContentLength > f.MaxBody {
		return fmt.Errorf("%w: %d > %d", ErrFeedTooLarge, resp.ContentLength, f.MaxBody)
	}

	ct := resp.Header.Get(config.HeaderContentType)
	if ct == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || mediaType != config.MimeTextCalendar {
		return fmt.Errorf("%s: %q", config.ErrFeedType, ct)
	}
	return nil
}

// cappedBody passes through at most left bytes, then fails instead of
// reporting a clean EOF on a truncated feed.
type cappedBody struct {
	body io.ReadCloser
	left int64
}

func (c *cappedBody) Read(p []byte) (int, error) {
	if c.left < 0 {
		return 0, ErrFeedTooLarge
	}
	// Asking for one byte past the cap separates a feed that ends exactly
	// at the limit from one that goes on.
	if int64(len(p)) > c.left+1 {
		p = p[:c.left+1]
	}
	n, err := c.body.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n - 1, ErrFeedTooLarge
	}
	return n, err
}

func (c *cappedBody) Close() error {
	return c.body.Close()
}
