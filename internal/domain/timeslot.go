package domain

import "fmt"

// MinutesPerDay bounds slot offsets; slots are minutes since midnight.
const MinutesPerDay = 24 * 60

// TimeSlot is a half-open availability window within a single day, expressed
// as minute offsets since midnight. Minutes avoid the timezone and locale
// pitfalls of formatted clock strings; callers convert "HH:MM" at the edge.
type TimeSlot struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// NewTimeSlot validates the window bounds.
func NewTimeSlot(startMinute, endMinute int) (TimeSlot, error) {
	if startMinute < 0 || startMinute >= MinutesPerDay {
		return TimeSlot{}, fmt.Errorf("%w: start minute %d out of range", ErrInvalidInput, startMinute)
	}
	if endMinute <= 0 || endMinute > MinutesPerDay {
		return TimeSlot{}, fmt.Errorf("%w: end minute %d out of range", ErrInvalidInput, endMinute)
	}
	if startMinute >= endMinute {
		return TimeSlot{}, fmt.Errorf("%w: slot must start before it ends (%d >= %d)", ErrInvalidInput, startMinute, endMinute)
	}
	return TimeSlot{StartMinute: startMinute, EndMinute: endMinute}, nil
}

// OverlapMinutes returns the shared minutes between two slots. Disjoint slots,
// or slots that only touch at a single point, overlap for zero minutes.
func (s TimeSlot) OverlapMinutes(o TimeSlot) int {
	start := s.StartMinute
	if o.StartMinute > start {
		start = o.StartMinute
	}
	end := s.EndMinute
	if o.EndMinute < end {
		end = o.EndMinute
	}
	if end <= start {
		return 0
	}
	return end - start
}

// Intersect returns the shared window and whether a positive overlap exists.
func (s TimeSlot) Intersect(o TimeSlot) (TimeSlot, bool) {
	minutes := s.OverlapMinutes(o)
	if minutes == 0 {
		return TimeSlot{}, false
	}
	start := s.StartMinute
	if o.StartMinute > start {
		start = o.StartMinute
	}
	return TimeSlot{StartMinute: start, EndMinute: start + minutes}, true
}
