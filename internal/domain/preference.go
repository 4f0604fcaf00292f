// Package domain defines the business logic for the buddy matching service.
package domain

import (
	"fmt"
	"time"
)

// Weekday identifies a day of the week in availability records.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// WeekdayOrder fixes the canonical Monday-first iteration order used when
// assembling common availability, so results are deterministic.
var WeekdayOrder = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday validates a raw day value.
func ParseWeekday(raw string) (Weekday, error) {
	for _, day := range WeekdayOrder {
		if string(day) == raw {
			return day, nil
		}
	}
	return "", fmt.Errorf("%w: unknown weekday %q", ErrInvalidInput, raw)
}

// EquipmentStatus describes whether a user has the gear an activity needs.
type EquipmentStatus string

const (
	EquipmentHave      EquipmentStatus = "have"
	EquipmentNeed      EquipmentStatus = "need"
	EquipmentCanShare  EquipmentStatus = "can_share"
	EquipmentNotNeeded EquipmentStatus = "not_needed"
)

// ParseEquipmentStatus validates a raw equipment value.
func ParseEquipmentStatus(raw string) (EquipmentStatus, error) {
	switch EquipmentStatus(raw) {
	case EquipmentHave, EquipmentNeed, EquipmentCanShare, EquipmentNotNeeded:
		return EquipmentStatus(raw), nil
	}
	return "", fmt.Errorf("%w: unknown equipment status %q", ErrInvalidInput, raw)
}

// TransportStatus describes how a user gets to the activity.
type TransportStatus string

const (
	TransportHaveCar       TransportStatus = "have_car"
	TransportNeedRide      TransportStatus = "need_ride"
	TransportCanDrive      TransportStatus = "can_drive"
	TransportPublicTransit TransportStatus = "public_transit"
	TransportWalking       TransportStatus = "walking_distance"
)

// ParseTransportStatus validates a raw transport value.
func ParseTransportStatus(raw string) (TransportStatus, error) {
	switch TransportStatus(raw) {
	case TransportHaveCar, TransportNeedRide, TransportCanDrive, TransportPublicTransit, TransportWalking:
		return TransportStatus(raw), nil
	}
	return "", fmt.Errorf("%w: unknown transport status %q", ErrInvalidInput, raw)
}

// SkillLevel grades a user's proficiency at the activity.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

// ParseSkillLevel validates a raw skill value.
func ParseSkillLevel(raw string) (SkillLevel, error) {
	switch SkillLevel(raw) {
	case SkillBeginner, SkillIntermediate, SkillAdvanced:
		return SkillLevel(raw), nil
	}
	return "", fmt.Errorf("%w: unknown skill level %q", ErrInvalidInput, raw)
}

// rank positions skill levels for adjacency comparisons in scoring.
func (s SkillLevel) rank() int {
	switch s {
	case SkillBeginner:
		return 0
	case SkillIntermediate:
		return 1
	default:
		return 2
	}
}

// DayAvailability lists a user's open windows on one weekday. It is owned by
// exactly one preference row and never shared.
type DayAvailability struct {
	Day   Weekday    `json:"day"`
	Slots []TimeSlot `json:"slots"`
}

// ActivityPreference is one user's matching profile for one activity. At most
// one row exists per (user, activity); saves are upserts.
type ActivityPreference struct {
	UserID           string
	ActivityID       string
	OpenToMatching   bool
	Equipment        EquipmentStatus
	Transport        TransportStatus
	Skill            SkillLevel
	LocationRadiusKm float64
	Notes            string
	Availability     []DayAvailability
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks enum values and the availability invariants: slot bounds,
// unique days, and no self-overlapping slots within one day.
func (p ActivityPreference) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if p.ActivityID == "" {
		return fmt.Errorf("%w: activity id is required", ErrInvalidInput)
	}
	if _, err := ParseEquipmentStatus(string(p.Equipment)); err != nil {
		return err
	}
	if _, err := ParseTransportStatus(string(p.Transport)); err != nil {
		return err
	}
	if _, err := ParseSkillLevel(string(p.Skill)); err != nil {
		return err
	}
	if p.LocationRadiusKm < 0 {
		return fmt.Errorf("%w: location radius must not be negative", ErrInvalidInput)
	}

	seen := make(map[Weekday]struct{}, len(p.Availability))
	for _, day := range p.Availability {
		if _, err := ParseWeekday(string(day.Day)); err != nil {
			return err
		}
		if _, dup := seen[day.Day]; dup {
			return fmt.Errorf("%w: duplicate availability for %s", ErrInvalidInput, day.Day)
		}
		seen[day.Day] = struct{}{}

		for i, slot := range day.Slots {
			if _, err := NewTimeSlot(slot.StartMinute, slot.EndMinute); err != nil {
				return err
			}
			for _, other := range day.Slots[:i] {
				if slot.OverlapMinutes(other) > 0 {
					return fmt.Errorf("%w: overlapping slots on %s", ErrInvalidInput, day.Day)
				}
			}
		}
	}
	return nil
}

// slotsFor returns the slots recorded for the given day, if any.
func (p ActivityPreference) slotsFor(day Weekday) []TimeSlot {
	for _, d := range p.Availability {
		if d.Day == day {
			return d.Slots
		}
	}
	return nil
}
