package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/booking-engine-api/internal/interval"
)

func date(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 0, 0, 0, 0, time.UTC)
}

func januaryRule() Rule {
	return Rule{
		StartDate: date(time.January, 1),
		EndDate:   date(time.January, 31),
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
		StartTime: MustClock("09:00"),
		EndTime:   MustClock("11:00"),
	}
}

func TestExpandMondayWednesdayWindow(t *testing.T) {
	e := NewExpander(time.UTC)

	occ := e.Expand(januaryRule(), date(time.January, 8), date(time.January, 10), nil)

	require.Len(t, occ, 2)
	assert.Equal(t, time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC), occ[0].Interval.Start)
	assert.Equal(t, time.Date(2024, 1, 8, 11, 0, 0, 0, time.UTC), occ[0].Interval.End)
	assert.Equal(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), occ[1].Interval.Start)
	assert.Equal(t, time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC), occ[1].Interval.End)
}

func TestExpandAppliesException(t *testing.T) {
	e := NewExpander(time.UTC)
	exceptions := []Exception{{Date: date(time.January, 8), StartTime: MustClock("13:00"), EndTime: MustClock("15:00")}}

	occ := e.Expand(januaryRule(), date(time.January, 8), date(time.January, 10), exceptions)

	require.Len(t, occ, 2)
	assert.True(t, occ[0].Overridden)
	assert.Equal(t, time.Date(2024, 1, 8, 13, 0, 0, 0, time.UTC), occ[0].Interval.Start)
	assert.Equal(t, time.Date(2024, 1, 8, 15, 0, 0, 0, time.UTC), occ[0].Interval.End)
	assert.False(t, occ[1].Overridden)
	assert.Equal(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), occ[1].Interval.Start)
}

func TestExpandCountMatchesWeekdayCount(t *testing.T) {
	e := NewExpander(time.UTC)
	rule := januaryRule()
	windowStart, windowEnd := date(time.January, 1), date(time.February, 15)

	var want int
	for d := rule.StartDate; !d.After(rule.EndDate); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Monday || d.Weekday() == time.Wednesday {
			want++
		}
	}

	assert.Len(t, e.Expand(rule, windowStart, windowEnd, nil), want)
	assert.Equal(t, 10, want)
}

func TestExpandWindowOutsideValidity(t *testing.T) {
	e := NewExpander(time.UTC)
	assert.Empty(t, e.Expand(januaryRule(), date(time.March, 1), date(time.March, 31), nil))
}

func TestExpandWindowWithoutMatchingWeekday(t *testing.T) {
	e := NewExpander(time.UTC)
	// Jan 11-12 2024 are Thursday and Friday.
	assert.Empty(t, e.Expand(januaryRule(), date(time.January, 11), date(time.January, 12), nil))
}

func TestExpandZeroLengthExceptionIsYielded(t *testing.T) {
	e := NewExpander(time.UTC)
	exceptions := []Exception{{Date: date(time.January, 8), StartTime: MustClock("10:00"), EndTime: MustClock("10:00")}}

	occ := e.Expand(januaryRule(), date(time.January, 8), date(time.January, 8), exceptions)

	require.Len(t, occ, 1)
	assert.True(t, occ[0].Interval.IsEmpty())
}

func TestOccurrencesIsRestartable(t *testing.T) {
	e := NewExpander(time.UTC)
	seq := e.Occurrences(januaryRule(), date(time.January, 1), date(time.January, 31), nil)

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	assert.Equal(t, count(), count())
}

func TestOccurrencesStopsEarly(t *testing.T) {
	e := NewExpander(time.UTC)
	n := 0
	for range e.Occurrences(januaryRule(), date(time.January, 1), date(time.January, 31), nil) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestExpandUsesCanonicalLocation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	e := NewExpander(loc)

	occ := e.Expand(januaryRule(), time.Date(2024, 1, 8, 0, 0, 0, 0, loc), time.Date(2024, 1, 8, 23, 0, 0, 0, loc), nil)

	require.Len(t, occ, 1)
	assert.Equal(t, time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC), occ[0].Interval.Start.UTC())
}

func TestOverlapping(t *testing.T) {
	e := NewExpander(time.UTC)
	target := interval.Interval{
		Start: time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	var hits []Occurrence
	for occ := range e.Overlapping(januaryRule(), target, nil) {
		hits = append(hits, occ)
	}
	require.Len(t, hits, 1)
	assert.Equal(t, 10, hits[0].Date.Day())

	touching := interval.Interval{
		Start: time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	for range e.Overlapping(januaryRule(), touching, nil) {
		t.Fatal("touching boundary must not overlap")
	}
}

func TestRuleValidate(t *testing.T) {
	rule := januaryRule()
	require.NoError(t, rule.Validate())

	noDays := rule
	noDays.Weekdays = nil
	assert.ErrorIs(t, noDays.Validate(), ErrNoWeekdays)

	badDay := rule
	badDay.Weekdays = []time.Weekday{7}
	assert.ErrorIs(t, badDay.Validate(), ErrInvalidWeekday)

	reversed := rule
	reversed.StartTime, reversed.EndTime = rule.EndTime, rule.StartTime
	assert.ErrorIs(t, reversed.Validate(), ErrInvalidTimeRange)

	dates := rule
	dates.StartDate, dates.EndDate = rule.EndDate, rule.StartDate
	assert.ErrorIs(t, dates.Validate(), ErrInvalidDateRange)
}

func TestRuleIncludes(t *testing.T) {
	rule := januaryRule()
	assert.True(t, rule.Includes(date(time.January, 8)))
	assert.False(t, rule.Includes(date(time.January, 9)))
	assert.False(t, rule.Includes(date(time.February, 5)))
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30:00")
	require.NoError(t, err)
	assert.Equal(t, "09:30", c.String())

	for _, raw := range []string{"", "9", "24:00", "10:60", "10:00:30", "ab:cd"} {
		_, err := ParseClock(raw)
		assert.Error(t, err, raw)
	}
}
