package heatmap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tartampluch/go-heatmap/internal/config"
)

// RangeQuery is what the user asked to see: a range expression, a year, or neither.
type RangeQuery struct {
	Range   string
	Year    int
	HasYear bool
}

// UsesToday reports whether the range q resolves to depends on the current
// date: the default range, a bare start date, or an open end.
func (q RangeQuery) UsesToday() bool {
	if q.Range == "" {
		return !q.HasYear
	}
	parts := strings.Split(q.Range, config.RangeSeparator)
	return len(parts) == 1 || parts[len(parts)-1] == config.RangeOpen
}

// ResolveRange turns q into an inclusive date range.
//
//   - range given: see ParseRange
//   - year given: January 1 to December 31 of that year
//   - neither: first day of the month DefaultMonthsBack months ago to today
func ResolveRange(q RangeQuery, store *YearData, clock Clock) (time.Time, time.Time, error) {
	today := DateOf(clock.Now())

	var from, to time.Time
	var err error
	switch {
	case q.Range != "" && q.HasYear:
		err = Wrap(KindParse, errors.New(config.ErrRangeConflict))
	case q.Range != "":
		from, to, err = ParseRange(q.Range, store, today)
	case q.HasYear:
		from = CivilDate(q.Year, time.January, 1)
		to = CivilDate(q.Year, time.December, 31)
	default:
		from, to = DefaultRangeStart(today), today
	}
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	slog.Debug(config.MsgRangeResolved,
		config.LogKeyComponent, config.CompRender,
		config.LogKeyFrom, from.Format(config.DateFormatDisplay),
		config.LogKeyTo, to.Format(config.DateFormatDisplay),
	)
	return from, to, nil
}

// DefaultRangeStart is the first day of the month DefaultMonthsBack months before today.
func DefaultRangeStart(today time.Time) time.Time {
	// time.Date normalizes month values below January into the previous year.
	return CivilDate(today.Year(), today.Month()-config.DefaultMonthsBack, 1)
}

// ParseRange parses "FROM-TO", "FROM" or "_"-delimited open ranges where each
// bound is YYYYMMDD. An open start is January 1 of the first stored year; an
// open or missing end is today.
func ParseRange(expr string, store *YearData, today time.Time) (time.Time, time.Time, error) {
	parts := strings.Split(expr, config.RangeSeparator)
	if len(parts) > 2 {
		return time.Time{}, time.Time{}, Wrap(KindParse, fmt.Errorf("%s: %q", config.ErrRangeShape, expr))
	}

	left, right := parts[0], config.RangeOpen
	if len(parts) == 2 {
		right = parts[1]
	}

	var from, to time.Time
	if left == config.RangeOpen {
		year, ok := store.FirstYear()
		if !ok {
			return time.Time{}, time.Time{}, ErrNoData
		}
		from = CivilDate(year, time.January, 1)
	} else {
		var err error
		if from, err = parseBound(left); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if right == config.RangeOpen {
		to = DateOf(today)
	} else {
		var err error
		if to, err = parseBound(right); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, Wrap(KindWrongDate, fmt.Errorf("%s: %s > %s", config.ErrRangeInverted,
			from.Format(config.DateFormatDisplay), to.Format(config.DateFormatDisplay)))
	}
	return from, to, nil
}

func parseBound(s string) (time.Time, error) {
	if len(s) != len(config.DateFormatRange) {
		return time.Time{}, Wrap(KindParse, fmt.Errorf("%s: %q", config.ErrRangeShape, s))
	}
	t, err := time.Parse(config.DateFormatRange, s)
	if err != nil {
		return time.Time{}, Wrap(KindParse, fmt.Errorf("%q: %w", s, err))
	}
	return t, nil
}
