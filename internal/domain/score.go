package domain

import "math"

// Scoring weights. Shared availability dominates match quality; the remaining
// factors nudge candidates with complementary logistics up the ranking.
const (
	weightTime      = 0.5
	weightEquipment = 0.2
	weightTransport = 0.2
	weightSkill     = 0.1

	// overlapCapMinutes is the weekly overlap at which the time factor
	// saturates; ten shared hours a week is already a perfect time match.
	overlapCapMinutes = 600
)

// MatchResult is the outcome of scoring one candidate against the requester.
// CommonAvailability is empty when the pair shares no window at all, in which
// case the candidate must not be surfaced as a match.
type MatchResult struct {
	Score              int
	CommonAvailability []DayAvailability
}

// ScoreCompatibility computes the 0-100 compatibility between two preference
// records for the same activity. It is a total function over validated
// preferences; both sides are assumed open to matching.
func ScoreCompatibility(requester, candidate ActivityPreference) MatchResult {
	common, totalMinutes := commonAvailability(requester, candidate)
	if len(common) == 0 {
		return MatchResult{}
	}

	timeScore := math.Min(1.0, float64(totalMinutes)/float64(overlapCapMinutes))
	score := weightTime*timeScore +
		weightEquipment*equipmentScore(requester.Equipment, candidate.Equipment) +
		weightTransport*transportScore(requester.Transport, candidate.Transport) +
		weightSkill*skillScore(requester.Skill, candidate.Skill)

	return MatchResult{
		Score:              int(math.Round(100 * score)),
		CommonAvailability: common,
	}
}

// commonAvailability intersects the two weekly schedules. For each day present
// on both sides it crosses the slot lists, collecting every positive overlap
// window and the total shared minutes. Days without a shared window are
// omitted entirely.
func commonAvailability(a, b ActivityPreference) ([]DayAvailability, int) {
	var common []DayAvailability
	total := 0

	for _, day := range WeekdayOrder {
		slotsA := a.slotsFor(day)
		slotsB := b.slotsFor(day)
		if len(slotsA) == 0 || len(slotsB) == 0 {
			continue
		}

		var shared []TimeSlot
		for _, sa := range slotsA {
			for _, sb := range slotsB {
				if window, ok := sa.Intersect(sb); ok {
					shared = append(shared, window)
					total += window.EndMinute - window.StartMinute
				}
			}
		}
		if len(shared) > 0 {
			common = append(common, DayAvailability{Day: day, Slots: shared})
		}
	}
	return common, total
}

// equipmentScore grants full credit for complementary gear situations: one
// side can supply what the other needs, or neither needs any. Everything else
// is compatible but not ideal.
func equipmentScore(a, b EquipmentStatus) float64 {
	supplies := func(s EquipmentStatus) bool { return s == EquipmentHave || s == EquipmentCanShare }
	switch {
	case supplies(a) && b == EquipmentNeed:
		return 1.0
	case a == EquipmentNeed && supplies(b):
		return 1.0
	case a == EquipmentNotNeeded && b == EquipmentNotNeeded:
		return 1.0
	default:
		return 0.5
	}
}

// transportScore grants full credit when one side can carry the other, or
// when both are independently mobile the same way.
func transportScore(a, b TransportStatus) float64 {
	drives := func(s TransportStatus) bool { return s == TransportHaveCar || s == TransportCanDrive }
	switch {
	case drives(a) && b == TransportNeedRide:
		return 1.0
	case a == TransportNeedRide && drives(b):
		return 1.0
	case a == TransportPublicTransit && b == TransportPublicTransit:
		return 1.0
	case a == TransportWalking && b == TransportWalking:
		return 1.0
	default:
		return 0.5
	}
}

// skillScore prefers identical levels, tolerates adjacent ones, and penalizes
// the beginner/advanced gap.
func skillScore(a, b SkillLevel) float64 {
	gap := a.rank() - b.rank()
	if gap < 0 {
		gap = -gap
	}
	switch gap {
	case 0:
		return 1.0
	case 1:
		return 0.7
	default:
		return 0.4
	}
}
