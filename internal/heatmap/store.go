package heatmap

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/tartampluch/go-heatmap/internal/config"
)

// Event is one dated record produced by an importer.
// The same date may appear several times.
type Event struct {
	Date  time.Time
	Times uint32
}

// Importer yields every event of a data source.
type Importer interface {
	Events(ctx context.Context) ([]Event, error)
}

// DayCount is the number of events recorded on one day.
type DayCount struct {
	Ordinal int // 0-based day of year
	Count   uint32
}

// DaysData aggregates the counts of a single year.
// Entries are kept sorted by ordinal and never hold a zero count.
type DaysData struct {
	Year int
	days []DayCount
}

func newDaysData(year int) *DaysData {
	return &DaysData{Year: year}
}

// search returns the index of ordinal, or where it would be inserted.
func (d *DaysData) search(ordinal int) (int, bool) {
	return slices.BinarySearchFunc(d.days, ordinal, func(dc DayCount, ord int) int {
		return dc.Ordinal - ord
	})
}

// add keeps days sorted by inserting new ordinals in place. Counts saturate
// at math.MaxUint32.
func (d *DaysData) add(ordinal int, times uint32) uint32 {
	i, found := d.search(ordinal)
	if !found {
		d.days = slices.Insert(d.days, i, DayCount{Ordinal: ordinal})
	}
	d.days[i].Count = saturatingAdd(d.days[i].Count, times)
	return d.days[i].Count
}

// Count returns the count stored for ordinal, 0 if none.
func (d *DaysData) Count(ordinal int) uint32 {
	if i, found := d.search(ordinal); found {
		return d.days[i].Count
	}
	return 0
}

// Len is the number of days with at least one event.
func (d *DaysData) Len() int {
	return len(d.days)
}

// Entries returns a copy of the stored days in ascending order.
func (d *DaysData) Entries() []DayCount {
	return slices.Clone(d.days)
}

// from returns the stored days whose ordinal is >= ordinal.
// The slice aliases internal storage and must not be modified.
func (d *DaysData) from(ordinal int) []DayCount {
	i, _ := d.search(ordinal)
	return d.days[i:]
}

// YearData holds the whole dataset, one DaysData per year.
type YearData struct {
	years map[int]*DaysData
}

// NewYearData returns an empty store.
func NewYearData() *YearData {
	return &YearData{years: make(map[int]*DaysData)}
}

// Add records times events on date and returns the new total for that day.
// A zero times counts as a single event.
func (y *YearData) Add(date time.Time, times uint32) uint32 {
	if times == 0 {
		times = 1
	}
	year := date.Year()
	days, ok := y.years[year]
	if !ok {
		days = newDaysData(year)
		y.years[year] = days
	}
	return days.add(Ordinal0(date), times)
}

// Days returns the aggregate of year.
func (y *YearData) Days(year int) (*DaysData, bool) {
	days, ok := y.years[year]
	return days, ok
}

// Years lists the stored years in ascending order.
func (y *YearData) Years() []int {
	years := make([]int, 0, len(y.years))
	for year := range y.years {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// FirstYear returns the earliest stored year.
func (y *YearData) FirstYear() (int, bool) {
	years := y.Years()
	if len(years) == 0 {
		return 0, false
	}
	return years[0], true
}

// Build ingests every event of imp into a new store.
func Build(ctx context.Context, imp Importer) (*YearData, error) {
	start := time.Now()
	events, err := imp.Events(ctx)
	if err != nil {
		return nil, err
	}

	store := NewYearData()
	for _, e := range events {
		store.Add(e.Date, e.Times)
	}

	slog.Debug(config.MsgImportDone,
		config.LogKeyComponent, config.CompImport,
		config.LogKeyEvents, len(events),
		config.LogKeyYears, len(store.years),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return store, nil
}

func saturatingAdd(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}
