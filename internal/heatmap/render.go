package heatmap

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/tartampluch/go-heatmap/internal/config"
)

// Renderer draws the weekly grid of a store onto a text sink.
type Renderer struct {
	Store  *YearData
	Styler Styler
}

// NewRenderer returns a renderer over store. A nil styler draws plain glyphs.
func NewRenderer(store *YearData, styler Styler) *Renderer {
	if store == nil {
		store = NewYearData()
	}
	if styler == nil {
		styler = PlainStyler{}
	}
	return &Renderer{Store: store, Styler: styler}
}

// RenderYearRange writes the week lines covering days from..to (0-based
// ordinals, inclusive) of year.
//
// Each line holds seven cells, " |" and, when a month starts during that week,
// the two-digit month number. Output already written is not rolled back on error.
func (r *Renderer) RenderYearRange(w io.Writer, year, from, to int) error {
	if from < 0 || from > to || to > LastOrdinal(year) {
		return Wrap(KindWrongDate, fmt.Errorf("%s: %d..%d in %d", config.ErrOrdinalRange, from, to, year))
	}

	// Weekday of January 1st, Monday = 0. Shifting ordinals by it aligns
	// every day with its column.
	fst := FirstWeekday(year)
	starts := MonthStarts(year)
	// Index of the next month whose first day can still appear; after a month
	// is consumed it doubles as that month's 1-based number.
	month := sort.SearchInts(starts[:], from)

	// Stored days are sorted by ordinal and consumed from the front as the
	// walk passes them, so each day is looked up once.
	var counts []DayCount
	if days, ok := r.Store.Days(year); ok {
		counts = days.from(from)
	}

	// weekMonth is the month that starts in the line being built, 0 if none.
	var line strings.Builder
	weekMonth := 0

	// 1. Pad the first week up to the weekday of from.
	for range (from + fst) % config.DaysPerWeek {
		r.writeCell(&line, false, Empty)
	}

	// 2. One cell per day; a line ends after each Sunday.
	for d := from; d <= to; d++ {
		first := month < len(starts) && starts[month] == d
		if first {
			month++
			weekMonth = month
		}

		level := L0
		if len(counts) > 0 && counts[0].Ordinal == d {
			level = Bucket(counts[0].Count)
			counts = counts[1:]
		}
		r.writeCell(&line, first, level)

		if (d+fst+1)%config.DaysPerWeek == 0 {
			if err := r.endWeek(w, &line, weekMonth); err != nil {
				return err
			}
			weekMonth = 0
		}
	}

	// 3. Pad and close a last week that stopped before Sunday.
	if filled := (to + fst + 1) % config.DaysPerWeek; filled != 0 {
		for range config.DaysPerWeek - filled {
			r.writeCell(&line, false, Empty)
		}
		return r.endWeek(w, &line, weekMonth)
	}
	return nil
}

// RenderDateRange writes a year header followed by the grid of every year
// touched by from..to. Years without data are drawn as empty grids.
func (r *Renderer) RenderDateRange(w io.Writer, from, to time.Time) error {
	from, to = DateOf(from), DateOf(to)
	if from.After(to) {
		return Wrap(KindWrongDate, fmt.Errorf("%s: %s > %s", config.ErrRangeInverted,
			from.Format(config.DateFormatDisplay), to.Format(config.DateFormatDisplay)))
	}

	for year := from.Year(); year <= to.Year(); year++ {
		fromOrd := 0
		if year == from.Year() {
			fromOrd = Ordinal0(from)
		}
		toOrd := LastOrdinal(year)
		if year == to.Year() {
			toOrd = Ordinal0(to)
		}

		if err := r.writeYearHeader(w, year); err != nil {
			return err
		}
		if err := r.RenderYearRange(w, year, fromOrd, toOrd); err != nil {
			return err
		}
	}

	slog.Debug(config.MsgRenderDone,
		config.LogKeyComponent, config.CompRender,
		config.LogKeyFrom, from.Format(config.DateFormatDisplay),
		config.LogKeyTo, to.Format(config.DateFormatDisplay),
	)
	return nil
}

// RenderAll writes every stored year in full.
func (r *Renderer) RenderAll(w io.Writer) error {
	for _, year := range r.Store.Years() {
		if err := r.writeYearHeader(w, year); err != nil {
			return err
		}
		if err := r.RenderYearRange(w, year, 0, LastOrdinal(year)); err != nil {
			return err
		}
	}
	return nil
}

// writeCell appends one two-column cell: the month-start marker or a blank,
// then the glyph of level.
func (r *Renderer) writeCell(line *strings.Builder, monthStart bool, level Intensity) {
	if monthStart {
		line.WriteString(config.PrefixMonthStart)
	} else {
		line.WriteString(config.PrefixPlain)
	}
	line.WriteString(r.Styler.Paint(level))
}

// endWeek closes the current line and hands it to the sink in a single write.
func (r *Renderer) endWeek(w io.Writer, line *strings.Builder, month int) error {
	line.WriteString(config.WeekTrailer)
	if month > 0 {
		if _, err := fmt.Fprintf(line, config.FormatMonthLabel, month); err != nil {
			return Wrap(KindFmt, fmt.Errorf("%s: %w", config.ErrAssembleLine, err))
		}
	}
	line.WriteString(config.LineEnd)
	return flushLine(w, line)
}

// writeYearHeader writes a blank week followed by the year label.
func (r *Renderer) writeYearHeader(w io.Writer, year int) error {
	var line strings.Builder
	for range config.DaysPerWeek {
		r.writeCell(&line, false, Empty)
	}
	line.WriteString(config.WeekTrailer)
	if _, err := fmt.Fprintf(&line, config.FormatYearLabel, year); err != nil {
		return Wrap(KindFmt, fmt.Errorf("%s: %w", config.ErrAssembleLine, err))
	}
	line.WriteString(config.LineEnd)
	return flushLine(w, &line)
}

// flushLine writes line and empties it, even when the write fails.
func flushLine(w io.Writer, line *strings.Builder) error {
	defer line.Reset()
	if _, err := io.WriteString(w, line.String()); err != nil {
		return Wrap(KindIO, fmt.Errorf("%s: %w", config.ErrWriteLine, err))
	}
	return nil
}
