// Package recurrence expands weekly recurring blocks into concrete occurrences.
package recurrence

import (
	"errors"
	"iter"
	"slices"
	"time"

	"github.com/noah-isme/booking-engine-api/internal/interval"
)

// DateLayout keys exceptions by calendar date.
const DateLayout = "2006-01-02"

var (
	// ErrNoWeekdays indicates a rule without any configured weekday.
	ErrNoWeekdays = errors.New("recurrence: at least one weekday is required")
	// ErrInvalidWeekday indicates a weekday index outside 0..6.
	ErrInvalidWeekday = errors.New("recurrence: weekday must be between 0 and 6")
	// ErrInvalidTimeRange indicates a daily start time not before its end time.
	ErrInvalidTimeRange = errors.New("recurrence: start time must be before end time")
	// ErrInvalidDateRange indicates a validity window ending before it starts.
	ErrInvalidDateRange = errors.New("recurrence: start date must not be after end date")
)

// Rule is a weekly pattern bounded by an inclusive date range.
type Rule struct {
	StartDate time.Time
	EndDate   time.Time
	Weekdays  []time.Weekday
	StartTime Clock
	EndTime   Clock
}

// Validate checks the structural invariants of the rule.
func (r Rule) Validate() error {
	if len(r.Weekdays) == 0 {
		return ErrNoWeekdays
	}
	for _, day := range r.Weekdays {
		if day < time.Sunday || day > time.Saturday {
			return ErrInvalidWeekday
		}
	}
	if !r.StartTime.Before(r.EndTime) {
		return ErrInvalidTimeRange
	}
	if dateOnly(r.StartDate, time.UTC).After(dateOnly(r.EndDate, time.UTC)) {
		return ErrInvalidDateRange
	}
	return nil
}

// Includes reports whether date falls inside the validity window on a configured weekday.
func (r Rule) Includes(date time.Time) bool {
	day := dateOnly(date, time.UTC)
	if day.Before(dateOnly(r.StartDate, time.UTC)) || day.After(dateOnly(r.EndDate, time.UTC)) {
		return false
	}
	return slices.Contains(r.Weekdays, day.Weekday())
}

// Exception overrides the time range of a single occurrence date.
type Exception struct {
	Date      time.Time
	StartTime Clock
	EndTime   Clock
}

// Occurrence is one concrete date-bound instance of a rule.
type Occurrence struct {
	Date       time.Time
	Interval   interval.Interval
	Overridden bool
}

// Expander turns rules into occurrences in a canonical location.
type Expander struct {
	location *time.Location
}

// NewExpander builds an expander normalising to loc (UTC when nil).
func NewExpander(loc *time.Location) *Expander {
	if loc == nil {
		loc = time.UTC
	}
	return &Expander{location: loc}
}

// Location returns the canonical location occurrences are produced in.
func (e *Expander) Location() *time.Location {
	return e.location
}

// Occurrences lazily yields one occurrence for every date in
// [max(rule.StartDate, windowStart), min(rule.EndDate, windowEnd)] whose weekday
// is configured. Window bounds are inclusive calendar dates. An exception keyed
// by the same date replaces that occurrence's times; zero-length overrides are
// yielded as-is. The returned sequence holds no state and may be ranged repeatedly.
func (e *Expander) Occurrences(rule Rule, windowStart, windowEnd time.Time, exceptions []Exception) iter.Seq[Occurrence] {
	loc := e.location

	overrides := make(map[string]Exception, len(exceptions))
	for _, ex := range exceptions {
		overrides[dateOnly(ex.Date, loc).Format(DateLayout)] = ex
	}

	var days [7]bool
	for _, wd := range rule.Weekdays {
		if wd >= time.Sunday && wd <= time.Saturday {
			days[wd] = true
		}
	}

	first := laterOf(dateOnly(rule.StartDate, loc), dateOnly(windowStart.In(loc), loc))
	last := earlierOf(dateOnly(rule.EndDate, loc), dateOnly(windowEnd.In(loc), loc))

	return func(yield func(Occurrence) bool) {
		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			if !days[day.Weekday()] {
				continue
			}
			start, end := rule.StartTime, rule.EndTime
			ex, overridden := overrides[day.Format(DateLayout)]
			if overridden {
				start, end = ex.StartTime, ex.EndTime
			}
			occ := Occurrence{
				Date:       day,
				Interval:   interval.Interval{Start: start.On(day, loc), End: end.On(day, loc)},
				Overridden: overridden,
			}
			if !yield(occ) {
				return
			}
		}
	}
}

// Expand collects Occurrences into a slice.
func (e *Expander) Expand(rule Rule, windowStart, windowEnd time.Time, exceptions []Exception) []Occurrence {
	return slices.Collect(e.Occurrences(rule, windowStart, windowEnd, exceptions))
}

// Overlapping yields the occurrences whose interval overlaps target. The date
// span scanned is the calendar span of target in the expander's location.
func (e *Expander) Overlapping(rule Rule, target interval.Interval, exceptions []Exception) iter.Seq[Occurrence] {
	return func(yield func(Occurrence) bool) {
		for occ := range e.Occurrences(rule, target.Start, target.End, exceptions) {
			if !occ.Interval.Overlaps(target) {
				continue
			}
			if !yield(occ) {
				return
			}
		}
	}
}

// dateOnly keeps the calendar date of t as seen in loc, at midnight in loc.
func dateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
