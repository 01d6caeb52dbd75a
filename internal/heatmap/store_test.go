package heatmap

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockImporter simulates a data source using `testify/mock`.
type MockImporter struct {
	mock.Mock
}

// Events implements the Importer interface.
func (m *MockImporter) Events(ctx context.Context) ([]Event, error) {
	args := m.Called(ctx)
	if e := args.Get(0); e != nil {
		return e.([]Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestYearData_AddAccumulates(t *testing.T) {
	store := NewYearData()
	day := CivilDate(2024, time.March, 15)

	assert.Equal(t, uint32(1), store.Add(day, 1))
	assert.Equal(t, uint32(2), store.Add(day, 1))
	assert.Equal(t, uint32(3), store.Add(day, 1))

	days, ok := store.Days(2024)
	require.True(t, ok)
	assert.Equal(t, 2024, days.Year)
	assert.Equal(t, uint32(3), days.Count(Ordinal0(day)))
	assert.Equal(t, L3, Bucket(days.Count(Ordinal0(day))))
}

func TestYearData_ZeroTimesCountsOnce(t *testing.T) {
	store := NewYearData()
	day := CivilDate(2022, time.July, 4)

	assert.Equal(t, uint32(1), store.Add(day, 0))
	assert.Equal(t, uint32(2), store.Add(day, 0))
}

func TestYearData_Saturates(t *testing.T) {
	store := NewYearData()
	day := CivilDate(2022, time.July, 4)

	store.Add(day, math.MaxUint32-1)
	assert.Equal(t, uint32(math.MaxUint32), store.Add(day, 5))
	assert.Equal(t, uint32(math.MaxUint32), store.Add(day, 1))
}

func TestDaysData_OrderedEntries(t *testing.T) {
	store := NewYearData()
	for _, d := range []time.Time{
		CivilDate(2024, time.December, 31),
		CivilDate(2024, time.January, 1),
		CivilDate(2024, time.June, 10),
		CivilDate(2024, time.January, 1),
	} {
		store.Add(d, 1)
	}

	days, ok := store.Days(2024)
	require.True(t, ok)
	assert.Equal(t, []DayCount{
		{Ordinal: 0, Count: 2},
		{Ordinal: 161, Count: 1},
		{Ordinal: 365, Count: 1},
	}, days.Entries())
	assert.Equal(t, 3, days.Len())
	assert.Equal(t, uint32(0), days.Count(5), "unknown days count zero")

	assert.Equal(t, []DayCount{{Ordinal: 365, Count: 1}}, days.from(200))
	assert.Empty(t, days.from(366))
}

func TestYearData_Years(t *testing.T) {
	store := NewYearData()
	_, ok := store.FirstYear()
	assert.False(t, ok)

	store.Add(CivilDate(2024, time.May, 1), 1)
	store.Add(CivilDate(-5, time.May, 1), 1)
	store.Add(CivilDate(2019, time.May, 1), 1)

	assert.Equal(t, []int{-5, 2019, 2024}, store.Years())
	first, ok := store.FirstYear()
	assert.True(t, ok)
	assert.Equal(t, -5, first)

	for _, y := range store.Years() {
		days, ok := store.Days(y)
		require.True(t, ok)
		assert.Equal(t, y, days.Year, "child year matches its key")
	}

	_, ok = store.Days(2000)
	assert.False(t, ok)
}

func TestBuild(t *testing.T) {
	imp := new(MockImporter)
	imp.On("Events", mock.Anything).Return([]Event{
		{Date: CivilDate(2024, time.March, 15), Times: 1},
		{Date: CivilDate(2024, time.March, 15), Times: 1},
		{Date: CivilDate(2023, time.January, 1), Times: 4},
	}, nil)

	store, err := Build(context.Background(), imp)
	require.NoError(t, err)

	assert.Equal(t, []int{2023, 2024}, store.Years())
	days, _ := store.Days(2024)
	assert.Equal(t, uint32(2), days.Count(74))
	days, _ = store.Days(2023)
	assert.Equal(t, uint32(4), days.Count(0))

	imp.AssertExpectations(t)
}

func TestBuild_ImporterError(t *testing.T) {
	imp := new(MockImporter)
	cause := Wrap(KindDatabase, errors.New("disk I/O error"))
	imp.On("Events", mock.Anything).Return(nil, cause)

	store, err := Build(context.Background(), imp)
	assert.Nil(t, store)
	assert.ErrorIs(t, err, ErrDatabase)
}

func TestBucket(t *testing.T) {
	tests := []struct {
		count uint32
		want  Intensity
		glyph string
	}{
		{0, L0, "."},
		{1, L1, "+"},
		{2, L2, "%"},
		{3, L3, "@"},
		{4, L4, "#"},
		{1000, L4, "#"},
		{math.MaxUint32, L4, "#"},
	}

	for _, tt := range tests {
		got := Bucket(tt.count)
		assert.Equal(t, tt.want, got, "count %d", tt.count)
		assert.Equal(t, tt.glyph, got.Glyph())
		assert.NotEqual(t, Empty, got, "a real count is never Empty")
	}

	assert.Equal(t, " ", Empty.Glyph())
	assert.Equal(t, " ", PlainStyler{}.Paint(Empty))
}

func TestCalendarHelpers(t *testing.T) {
	assert.True(t, IsLeap(2024))
	assert.True(t, IsLeap(2000))
	assert.False(t, IsLeap(1900))
	assert.False(t, IsLeap(2023))

	assert.Equal(t, 365, LastOrdinal(2024))
	assert.Equal(t, 364, LastOrdinal(2023))

	assert.Equal(t, 0, FirstWeekday(2024)) // Monday
	assert.Equal(t, 6, FirstWeekday(2023)) // Sunday
	assert.Equal(t, 2, FirstWeekday(2025)) // Wednesday

	starts := MonthStarts(2024)
	assert.Equal(t, 0, starts[0])
	assert.Equal(t, 31, starts[1])
	assert.Equal(t, 60, starts[2], "leap February shifts March")
	assert.Equal(t, 59, MonthStarts(2023)[2])

	assert.True(t, ValidDate(2024, 2, 29))
	assert.False(t, ValidDate(2023, 2, 29))
	assert.False(t, ValidDate(2023, 13, 1))
	assert.False(t, ValidDate(2023, 4, 31))
	assert.False(t, ValidDate(2023, 4, 0))
}

func TestErrorKinds(t *testing.T) {
	err := Wrap(KindIO, errors.New("boom"))
	assert.ErrorIs(t, err, ErrIO)
	assert.NotErrorIs(t, err, ErrWrongDate)
	assert.Equal(t, KindIO, KindOf(err))
	assert.Equal(t, "io error: boom", err.Error())

	assert.Nil(t, Wrap(KindIO, nil))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Equal(t, "given date is wrong", ErrWrongDate.Error())

	for _, k := range []Kind{KindNoSourceOfData, KindWrongDate, KindNoData, KindDatabase, KindParse, KindIO, KindFmt} {
		assert.NotEmpty(t, k.TranslationKey())
		assert.NotEqual(t, "unknown error", k.String())
	}
}
