package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, time.January, 8, hour, minute, 0, 0, time.UTC)
}

func span(h1, m1, h2, m2 int) Interval {
	return Interval{Start: at(h1, m1), End: at(h2, m2)}
}

func TestNewRejectsEmptyAndReversed(t *testing.T) {
	_, err := New(at(10, 0), at(10, 0))
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = New(at(12, 0), at(10, 0))
	require.ErrorIs(t, err, ErrInvalidInterval)

	iv, err := New(at(10, 0), at(12, 0))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, iv.Duration())
}

func TestOverlaps(t *testing.T) {
	existing := span(10, 0, 12, 0)

	cases := []struct {
		name string
		b    Interval
		want bool
	}{
		{"partial overlap at end", span(11, 0, 13, 0), true},
		{"partial overlap at start", span(9, 0, 10, 30), true},
		{"contained", span(10, 30, 11, 0), true},
		{"containing", span(9, 0, 13, 0), true},
		{"identical", span(10, 0, 12, 0), true},
		{"touching after", span(12, 0, 14, 0), false},
		{"touching before", span(8, 0, 10, 0), false},
		{"disjoint", span(14, 0, 15, 0), false},
		{"empty inside", span(11, 0, 11, 0), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(existing, tc.b))
			assert.Equal(t, Overlaps(existing, tc.b), Overlaps(tc.b, existing), "overlap must be symmetric")
		})
	}
}

func TestEmptyIntervalNeverOverlapsItself(t *testing.T) {
	empty := span(10, 0, 10, 0)
	assert.False(t, empty.Overlaps(empty))
	assert.True(t, empty.IsEmpty())
}

func TestContains(t *testing.T) {
	iv := span(10, 0, 12, 0)
	assert.True(t, iv.Contains(at(10, 0)))
	assert.True(t, iv.Contains(at(11, 59)))
	assert.False(t, iv.Contains(at(12, 0)))
	assert.False(t, iv.Contains(at(9, 59)))
}

func TestOverlapsAcrossZonesAfterNormalisation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	a := span(10, 0, 12, 0)
	b := Interval{Start: time.Date(2024, 1, 8, 8, 30, 0, 0, loc), End: time.Date(2024, 1, 8, 9, 30, 0, 0, loc)}
	assert.True(t, Overlaps(a.In(loc), b.In(loc)))
}
