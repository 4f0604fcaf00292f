package domain

import "errors"

var (
	// ErrPreferenceNotFound is returned when no preference row exists for a (user, activity) pair.
	ErrPreferenceNotFound = errors.New("activity preference not found")
	// ErrRequestNotFound is returned when a buddy request cannot be located.
	ErrRequestNotFound = errors.New("buddy request not found")
	// ErrRecipientNotFound is returned when the request recipient is unknown to the user directory.
	ErrRecipientNotFound = errors.New("recipient user not found")
	// ErrActivityNotFound is returned when the activity is unknown to the catalog.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrNotOpenToMatching is returned when the requester lacks an open preference for the activity.
	ErrNotOpenToMatching = errors.New("must have an open preference to find buddies")
	// ErrNotAuthorized is returned when the acting user may not perform the requested transition.
	ErrNotAuthorized = errors.New("user is not authorized for this request")
	// ErrRequestResolved is returned when a transition is attempted on a request that already left pending.
	ErrRequestResolved = errors.New("request already resolved")
	// ErrInvalidInput wraps validation failures surfaced at construction time.
	ErrInvalidInput = errors.New("invalid input")
)
