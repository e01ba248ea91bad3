// Package interval models half-open time ranges [Start, End).
//
// All comparisons assume both operands were normalised into the same
// location by the caller; the package never converts zones on its own.
package interval

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval indicates an interval whose start is not strictly before its end.
var ErrInvalidInterval = errors.New("interval: start must be before end")

// Interval is a half-open time range. The End instant is excluded, so two
// intervals sharing a boundary do not overlap.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// New validates and builds an interval.
func New(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if !iv.Valid() {
		return Interval{}, fmt.Errorf("%w: [%s, %s)", ErrInvalidInterval, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return iv, nil
}

// Valid reports whether Start < End.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// IsEmpty reports whether the interval covers no instant at all.
func (i Interval) IsEmpty() bool {
	return !i.Valid()
}

// Duration returns End-Start, or zero for empty intervals.
func (i Interval) Duration() time.Duration {
	if i.IsEmpty() {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Overlaps reports whether a and b share at least one instant.
// Empty intervals never overlap anything, including themselves.
func Overlaps(a, b Interval) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Overlaps is the method form of the package-level Overlaps.
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i, other)
}

// Contains reports whether point lies in [Start, End).
func (i Interval) Contains(point time.Time) bool {
	return !point.Before(i.Start) && point.Before(i.End)
}

// In returns the interval expressed in loc.
func (i Interval) In(loc *time.Location) Interval {
	return Interval{Start: i.Start.In(loc), End: i.End.In(loc)}
}

// String renders the interval in RFC3339 half-open notation.
func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}
