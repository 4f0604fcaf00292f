package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"example.com/buddy/internal/directory"
	"example.com/buddy/internal/domain"
)

// SlotPayload is an availability window in wall-clock form. The wire format
// uses "HH:MM" strings; conversion to minute offsets happens here, at the
// boundary, so the domain never sees clock strings.
type SlotPayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DayAvailabilityPayload lists the slots for one weekday.
type DayAvailabilityPayload struct {
	Day   string        `json:"day"`
	Slots []SlotPayload `json:"slots"`
}

// PreferencePayload is the body of PUT /v1/activities/{id}/preference.
type PreferencePayload struct {
	OpenToMatching   bool                     `json:"open_to_matching"`
	EquipmentStatus  string                   `json:"equipment_status"`
	TransportStatus  string                   `json:"transport_status"`
	SkillLevel       string                   `json:"skill_level"`
	LocationRadiusKm float64                  `json:"location_radius_km"`
	Notes            string                   `json:"notes,omitempty"`
	Availability     []DayAvailabilityPayload `json:"availability"`
}

func (p PreferencePayload) toDomain(userID, activityID string) (domain.ActivityPreference, error) {
	pref := domain.ActivityPreference{
		UserID:           userID,
		ActivityID:       activityID,
		OpenToMatching:   p.OpenToMatching,
		Equipment:        domain.EquipmentStatus(p.EquipmentStatus),
		Transport:        domain.TransportStatus(p.TransportStatus),
		Skill:            domain.SkillLevel(p.SkillLevel),
		LocationRadiusKm: p.LocationRadiusKm,
		Notes:            p.Notes,
	}

	for _, day := range p.Availability {
		slots := make([]domain.TimeSlot, 0, len(day.Slots))
		for _, slot := range day.Slots {
			start, err := parseClock(slot.Start)
			if err != nil {
				return domain.ActivityPreference{}, err
			}
			end, err := parseClock(slot.End)
			if err != nil {
				return domain.ActivityPreference{}, err
			}
			parsed, err := domain.NewTimeSlot(start, end)
			if err != nil {
				return domain.ActivityPreference{}, err
			}
			slots = append(slots, parsed)
		}
		pref.Availability = append(pref.Availability, domain.DayAvailability{
			Day:   domain.Weekday(day.Day),
			Slots: slots,
		})
	}
	return pref, nil
}

// PreferenceView is the response shape for preference reads and writes.
type PreferenceView struct {
	UserID           string                   `json:"user_id"`
	ActivityID       string                   `json:"activity_id"`
	OpenToMatching   bool                     `json:"open_to_matching"`
	EquipmentStatus  string                   `json:"equipment_status"`
	TransportStatus  string                   `json:"transport_status"`
	SkillLevel       string                   `json:"skill_level"`
	LocationRadiusKm float64                  `json:"location_radius_km"`
	Notes            string                   `json:"notes,omitempty"`
	Availability     []DayAvailabilityPayload `json:"availability"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

func toPreferenceView(pref domain.ActivityPreference) PreferenceView {
	return PreferenceView{
		UserID:           pref.UserID,
		ActivityID:       pref.ActivityID,
		OpenToMatching:   pref.OpenToMatching,
		EquipmentStatus:  string(pref.Equipment),
		TransportStatus:  string(pref.Transport),
		SkillLevel:       string(pref.Skill),
		LocationRadiusKm: pref.LocationRadiusKm,
		Notes:            pref.Notes,
		Availability:     toAvailabilityPayload(pref.Availability),
		CreatedAt:        pref.CreatedAt,
		UpdatedAt:        pref.UpdatedAt,
	}
}

func toAvailabilityPayload(days []domain.DayAvailability) []DayAvailabilityPayload {
	out := make([]DayAvailabilityPayload, 0, len(days))
	for _, day := range days {
		slots := make([]SlotPayload, 0, len(day.Slots))
		for _, slot := range day.Slots {
			slots = append(slots, SlotPayload{
				Start: formatClock(slot.StartMinute),
				End:   formatClock(slot.EndMinute),
			})
		}
		out = append(out, DayAvailabilityPayload{Day: string(day.Day), Slots: slots})
	}
	return out
}

// BuddyMatchView exposes one ranked match, optionally decorated with a
// directory profile.
type BuddyMatchView struct {
	CandidateID        string                   `json:"candidate_id"`
	MatchScore         int                      `json:"match_score"`
	CommonAvailability []DayAvailabilityPayload `json:"common_availability"`
	Profile            *directory.UserSummary   `json:"profile,omitempty"`
}

// FindBuddiesResponse packages search results.
type FindBuddiesResponse struct {
	Items []BuddyMatchView `json:"items"`
}

// CreateRequestPayload is the body of POST /v1/requests.
type CreateRequestPayload struct {
	RecipientID string     `json:"recipient_id"`
	ActivityID  string     `json:"activity_id"`
	Message     string     `json:"message,omitempty"`
	ProposedAt  *time.Time `json:"proposed_at,omitempty"`
	Location    string     `json:"location,omitempty"`
}

// Validate ensures request correctness.
func (p CreateRequestPayload) Validate() error {
	if strings.TrimSpace(p.RecipientID) == "" {
		return errors.New("recipient_id is required")
	}
	if strings.TrimSpace(p.ActivityID) == "" {
		return errors.New("activity_id is required")
	}
	return nil
}

// RespondPayload is the body of POST /v1/requests/{id}/respond.
type RespondPayload struct {
	Status string `json:"status"`
}

// RequestView exposes full details about a buddy request.
type RequestView struct {
	RequestID   string     `json:"request_id"`
	RequesterID string     `json:"requester_id"`
	RecipientID string     `json:"recipient_id"`
	ActivityID  string     `json:"activity_id"`
	Message     string     `json:"message,omitempty"`
	ProposedAt  *time.Time `json:"proposed_at,omitempty"`
	Location    string     `json:"location,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toRequestView(req domain.ActivityRequest) RequestView {
	return RequestView{
		RequestID:   req.ID,
		RequesterID: req.RequesterID,
		RecipientID: req.RecipientID,
		ActivityID:  req.ActivityID,
		Message:     req.Message,
		ProposedAt:  req.ProposedAt,
		Location:    req.Location,
		Status:      string(req.Status),
		CreatedAt:   req.CreatedAt,
		UpdatedAt:   req.UpdatedAt,
	}
}

// ListRequestsResponse packages list results.
type ListRequestsResponse struct {
	Items      []RequestView `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// parseClock converts an "HH:MM" wall-clock string to minutes since midnight.
// "24:00" is accepted as the end-of-day sentinel.
func parseClock(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: invalid time %q, expected HH:MM", domain.ErrInvalidInput, value)
	}
	var hours, minutes int
	if _, err := fmt.Sscanf(parts[0]+":"+parts[1], "%d:%d", &hours, &minutes); err != nil {
		return 0, fmt.Errorf("%w: invalid time %q, expected HH:MM", domain.ErrInvalidInput, value)
	}
	if hours < 0 || hours > 24 || minutes < 0 || minutes > 59 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("%w: invalid time %q", domain.ErrInvalidInput, value)
	}
	return hours*60 + minutes, nil
}

// formatClock renders minutes since midnight as "HH:MM".
func formatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
