// Package source opens the data sources a heatmap can be built from.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/tartampluch/go-heatmap/internal/config"
	"github.com/tartampluch/go-heatmap/internal/heatmap"
)

// Source is an importer backed by a resource that must be released.
type Source interface {
	heatmap.Importer
	io.Closer
}

// Kind names the flavor of a data source.
type Kind string

const (
	KindSQLite  Kind = "sqlite"
	KindICSFile Kind = "ics"
	KindICSWeb  Kind = "ics-web"
)

// Detect picks the source kind from the URL scheme or file extension.
// Anything that is neither a web URL nor an iCalendar file is read as SQLite.
func Detect(src string) Kind {
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, config.SchemeHTTP+config.SchemeSeparator) ||
		strings.HasPrefix(lower, config.SchemeHTTPS+config.SchemeSeparator) {
		return KindICSWeb
	}
	switch strings.ToLower(filepath.Ext(src)) {
	case config.ExtICS, config.ExtICal:
		return KindICSFile
	default:
		return KindSQLite
	}
}

// Open returns the importer for src. fetcher is only needed for web sources.
func Open(ctx context.Context, src string, fetcher ICalFetcher) (Source, error) {
	if src == "" {
		return nil, heatmap.ErrNoSourceOfData
	}

	kind := Detect(src)
	s, err := open(ctx, kind, src, fetcher)
	if err != nil {
		return nil, err
	}

	slog.Info(config.MsgSourceOpened,
		config.LogKeyComponent, config.CompImport,
		config.LogKeyKind, string(kind),
	)
	return s, nil
}

func open(ctx context.Context, kind Kind, src string, fetcher ICalFetcher) (Source, error) {
	switch kind {
	case KindICSWeb:
		if fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		u, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
		}
		// Credentials travel in the Authorization header, never in the logged URL.
		var user, pass string
		if u.User != nil {
			user = u.User.Username()
			pass, _ = u.User.Password()
			u.User = nil
		}
		rc, err := fetcher.Fetch(ctx, u.String(), user, pass)
		if err != nil {
			return nil, err
		}
		return NewICal(rc, u.Redacted()), nil

	case KindICSFile:
		f, err := os.Open(src)
		if err != nil {
			return nil, heatmap.Wrap(heatmap.KindIO, fmt.Errorf("%s: %w", config.ErrSourceOpen, err))
		}
		return NewICal(f, src), nil

	default:
		db, err := OpenSQLite(src)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}
