package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTimeSlotValidation(t *testing.T) {
	cases := []struct {
		name  string
		start int
		end   int
		ok    bool
	}{
		{"valid evening window", 18 * 60, 20 * 60, true},
		{"full day", 0, MinutesPerDay, true},
		{"start equals end", 600, 600, false},
		{"start after end", 700, 600, false},
		{"negative start", -1, 60, false},
		{"end past midnight", 1380, MinutesPerDay + 1, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTimeSlot(tc.start, tc.end)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidInput)
			}
		})
	}
}

func TestOverlapMinutes(t *testing.T) {
	a := TimeSlot{StartMinute: 18 * 60, EndMinute: 20 * 60}
	b := TimeSlot{StartMinute: 19 * 60, EndMinute: 21 * 60}

	require.Equal(t, 60, a.OverlapMinutes(b))

	// Symmetry holds for every pair.
	require.Equal(t, a.OverlapMinutes(b), b.OverlapMinutes(a))

	disjoint := TimeSlot{StartMinute: 8 * 60, EndMinute: 9 * 60}
	require.Equal(t, 0, a.OverlapMinutes(disjoint))

	// Touching at a single point is not an overlap.
	touching := TimeSlot{StartMinute: 20 * 60, EndMinute: 21 * 60}
	require.Equal(t, 0, a.OverlapMinutes(touching))

	contained := TimeSlot{StartMinute: 18*60 + 30, EndMinute: 19 * 60}
	require.Equal(t, 30, a.OverlapMinutes(contained))
}

func TestIntersect(t *testing.T) {
	a := TimeSlot{StartMinute: 18 * 60, EndMinute: 20 * 60}
	b := TimeSlot{StartMinute: 19 * 60, EndMinute: 21 * 60}

	window, ok := a.Intersect(b)
	require.True(t, ok)
	require.Equal(t, TimeSlot{StartMinute: 19 * 60, EndMinute: 20 * 60}, window)

	reversed, ok := b.Intersect(a)
	require.True(t, ok)
	require.Equal(t, window, reversed)

	_, ok = a.Intersect(TimeSlot{StartMinute: 20 * 60, EndMinute: 21 * 60})
	require.False(t, ok)
}
