package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-heatmap/internal/config"
	"github.com/tartampluch/go-heatmap/internal/heatmap"
)

// ICal reads events from an iCalendar stream: every VEVENT counts once on
// the calendar day of its DTSTART.
type ICal struct {
	// Location resolves floating times and picks the calendar day of UTC times.
	Location *time.Location

	rc   io.ReadCloser
	name string
}

// NewICal wraps rc. name is only used in logs.
func NewICal(rc io.ReadCloser, name string) *ICal {
	return &ICal{Location: time.Local, rc: rc, name: name}
}

// Events implements heatmap.Importer.
func (c *ICal) Events(ctx context.Context) ([]heatmap.Event, error) {
	decoder := ical.NewDecoder(c.rc)
	var events []heatmap.Event

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cal, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && c.overflowed() {
			return nil, heatmap.Wrap(heatmap.KindIO, ErrFeedTooLarge)
		}
		if err != nil {
			return nil, heatmap.Wrap(heatmap.KindParse, fmt.Errorf("%s: %w", config.ErrICalDecode, err))
		}

		for _, event := range cal.Events() {
			start, err := event.DateTimeStart(c.Location)
			if err == nil && start.IsZero() {
				err = errors.New(config.ErrICalStart)
			}
			if err != nil {
				slog.Warn(config.MsgEventSkipped,
					config.LogKeyComponent, config.CompImport,
					config.LogKeySource, c.name,
					config.LogKeyError, err,
				)
				continue
			}
			events = append(events, heatmap.Event{
				Date:  heatmap.DateOf(start.In(c.Location)),
				Times: config.EventsPerVEvent,
			})
		}
	}
	return events, nil
}

// overflowed reports whether a capped feed was cut. The decoder may then
// fail on the partial last line before it sees the read error.
func (c *ICal) overflowed() bool {
	body, ok := c.rc.(*cappedBody)
	return ok && body.left < 0
}

// Close releases the underlying stream.
func (c *ICal) Close() error {
	return c.rc.Close()
}
