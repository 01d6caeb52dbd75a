package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tartampluch/go-heatmap/internal/config"
	"github.com/tartampluch/go-heatmap/internal/heatmap"
)

// SQLite reads events from a database holding one table per year.
// Each table has integer columns month and day; every row is one event.
type SQLite struct {
	db *sql.DB
}

// yearTable pairs a year with the table that stores it.
type yearTable struct {
	year int
	name string
}

// OpenSQLite opens path read-only and checks that it is reachable.
func OpenSQLite(path string) (*SQLite, error) {
	dsn, err := fileDSN(path, config.SQLiteQueryReadOnly)
	if err != nil {
		return nil, heatmap.Wrap(heatmap.KindDatabase, fmt.Errorf("%s: %w", config.ErrSourceOpen, err))
	}

	db, err := sql.Open(config.SQLiteDriver, dsn)
	if err != nil {
		return nil, heatmap.Wrap(heatmap.KindDatabase, fmt.Errorf("%s: %w", config.ErrSourceOpen, err))
	}
	// sql.Open is lazy; Ping surfaces a missing or unreadable file now.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, heatmap.Wrap(heatmap.KindDatabase, fmt.Errorf("%s: %w", config.ErrSourceOpen, err))
	}
	return &SQLite{db: db}, nil
}

// fileDSN turns path into an SQLite URI filename carrying query.
//
// SQLite splits a "file:" URI on '?' and '#', so the path is made absolute and
// percent-encoded; otherwise "a?b.db" would open (and create) "a" in
// read-write mode.
func fileDSN(path, query string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		// Windows drive letters: file:///C:/dir/events.db
		p = "/" + p
	}
	u := url.URL{Scheme: config.SchemeFile, Path: p, RawQuery: query}
	return u.String(), nil
}

func (s *SQLite) yearTables(ctx context.Context) ([]yearTable, error) {
	rows, err := s.db.QueryContext(ctx, config.QueryTables)
	if err != nil {
		return nil, heatmap.Wrap(heatmap.KindDatabase, fmt.Errorf("%s: %w", config.ErrTableList, err))
	}
	defer func() { _ = rows.Close() }()

	var tables []yearTable
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, heatmap.Wrap(heatmap.KindDatabase, fmt.Errorf("%s: %w", config.ErrRowScan, err))
		}
		year, err := strconv.Atoi(name)
		if err != nil {
			slog.Debug(config.MsgTableSkipped,
				config.LogKeyComponent, config.CompImport,
				config.LogKeyTable, name,
			)
			continue
		}
		tables = append(tables, yearTable{year: year, name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, heatmap.Wrap(heatmap.KindDatabase, fmt.Errorf("%s: %w", config.ErrTableList, err))
	}
	return tables, nil
}

// Events implements heatmap.Importer. A row holding an impossible date fails
// the whole import with a WrongDate error.
func (s *SQLite) Events(ctx context.Context) ([]heatmap.Event, error) {
	tables, err := s.yearTables(ctx)
	if err != nil {
		return nil, err
	}

	var events []heatmap.Event
	for _, t := range tables {
		tableEvents, err := s.tableEvents(ctx, t)
		if err != nil {
			return nil, err
		}
		events = append(events, tableEvents...)
	}
	return events, nil
}

func (s *SQLite) tableEvents(ctx context.Context, t yearTable) ([]heatmap.Event, error) {
	// The name parsed as an integer, so it cannot break out of the quotes.
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(config.QueryYearFormat, t.name))
	if err != nil {
		return nil, heatmap.Wrap(heatmap.KindDatabase, fmt.Errorf("%s %q: %w", config.ErrTableQuery, t.name, err))
	}
	defer func() { _ = rows.Close() }()

	var events []heatmap.Event
	for rows.Next() {
		var month, day int
		if err := rows.Scan(&month, &day); err != nil {
			return nil, heatmap.Wrap(heatmap.KindDatabase, fmt.Errorf("%s: %w", config.ErrRowScan, err))
		}
		if !heatmap.ValidDate(t.year, month, day) {
			return nil, heatmap.Wrap(heatmap.KindWrongDate,
				fmt.Errorf("%s: table %q month %d day %d", config.ErrRowDate, t.name, month, day))
		}
		events = append(events, heatmap.Event{
			Date:  heatmap.CivilDate(t.year, time.Month(month), day),
			Times: config.EventsPerRow,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, heatmap.Wrap(heatmap.KindDatabase, fmt.Errorf("%s %q: %w", config.ErrTableQuery, t.name, err))
	}
	return events, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
