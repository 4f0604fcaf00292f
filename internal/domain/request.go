package domain

import (
	"fmt"
	"time"
)

// RequestStatus is the lifecycle state of a buddy request. A request starts
// pending and moves exactly once to one of the terminal states.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestDeclined  RequestStatus = "declined"
	RequestCancelled RequestStatus = "cancelled"
)

// ParseResponseStatus validates a transition target supplied by a caller.
// Pending is not a valid target; requests are created pending.
func ParseResponseStatus(raw string) (RequestStatus, error) {
	switch RequestStatus(raw) {
	case RequestAccepted, RequestDeclined, RequestCancelled:
		return RequestStatus(raw), nil
	}
	return "", fmt.Errorf("%w: unknown response status %q", ErrInvalidInput, raw)
}

// Terminal reports whether the status permits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == RequestAccepted || s == RequestDeclined || s == RequestCancelled
}

// ActivityRequest is a persisted invitation from one user to another to do an
// activity together. Requests are never deleted; declined and cancelled rows
// remain as an audit trail.
type ActivityRequest struct {
	ID          string
	RequesterID string
	RecipientID string
	ActivityID  string
	Message     string
	ProposedAt  *time.Time
	Location    string
	Status      RequestStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ActivityMatch records a consummated pairing. It is created exactly once, in
// the same transaction that moves its request to accepted, and is immutable
// afterwards. MatchScore is fixed at 100 for an accepted pairing.
type ActivityMatch struct {
	ID         string
	RequestID  string
	User1ID    string
	User2ID    string
	ActivityID string
	MatchScore int
	CreatedAt  time.Time
}

// BuddyMatch is the ephemeral result of a find-buddies call. It is computed
// fresh on every call and never persisted.
type BuddyMatch struct {
	CandidateID        string
	Score              int
	CommonAvailability []DayAvailability
}
