package domain

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// PreferenceRepository captures persistence operations for matching profiles.
type PreferenceRepository interface {
	// Get returns nil when no preference exists for the pair.
	Get(ctx context.Context, userID, activityID string) (*ActivityPreference, error)
	// Save upserts the single preference row for (user, activity).
	Save(ctx context.Context, pref ActivityPreference) error
	// ListOpen returns every preference for the activity with matching opted
	// in, excluding the given user, in a stable load order.
	ListOpen(ctx context.Context, activityID, excludeUserID string) ([]ActivityPreference, error)
}

// RequestRepository captures persistence operations for requests and matches.
type RequestRepository interface {
	// Create inserts the pending request and its notification event in one
	// transaction.
	Create(ctx context.Context, req ActivityRequest) error
	// GetRequest returns nil when the request does not exist.
	GetRequest(ctx context.Context, requestID string) (*ActivityRequest, error)
	// Resolve moves the request out of pending with a conditional update and,
	// when match is non-nil, inserts the match row in the same transaction.
	// It returns ErrRequestResolved when the request already left pending.
	Resolve(ctx context.Context, requestID string, status RequestStatus, match *ActivityMatch) error
	// ListForUser pages through requests the user sent or received, newest
	// first.
	ListForUser(ctx context.Context, userID string, role RequestRole, cursor *Cursor, limit int) ([]ActivityRequest, *Cursor, error)
}

// Directory resolves users and activities owned by collaborating services.
type Directory interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	ActivityExists(ctx context.Context, activityID string) (bool, error)
}

// RequestRole selects which side of a request a listing targets.
type RequestRole string

const (
	RoleSent     RequestRole = "sent"
	RoleReceived RequestRole = "received"
)

// ParseRequestRole validates a raw listing role.
func ParseRequestRole(raw string) (RequestRole, error) {
	switch RequestRole(raw) {
	case RoleSent, RoleReceived:
		return RequestRole(raw), nil
	}
	return "", fmt.Errorf("%w: unknown request role %q", ErrInvalidInput, raw)
}

// Cursor models the pagination token for request listings.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Service orchestrates buddy matching workflows.
type Service struct {
	prefs     PreferenceRepository
	requests  RequestRepository
	directory Directory
}

// NewService constructs a Service.
func NewService(prefs PreferenceRepository, requests RequestRepository, directory Directory) *Service {
	return &Service{prefs: prefs, requests: requests, directory: directory}
}

// SavePreference validates and upserts the caller's matching profile.
func (s *Service) SavePreference(ctx context.Context, pref ActivityPreference) (*ActivityPreference, error) {
	if err := pref.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pref.UpdatedAt = now
	if existing, err := s.prefs.Get(ctx, pref.UserID, pref.ActivityID); err != nil {
		return nil, err
	} else if existing != nil {
		pref.CreatedAt = existing.CreatedAt
	} else {
		pref.CreatedAt = now
	}

	if err := s.prefs.Save(ctx, pref); err != nil {
		return nil, err
	}
	return &pref, nil
}

// GetPreference fetches the caller's profile for one activity.
func (s *Service) GetPreference(ctx context.Context, userID, activityID string) (*ActivityPreference, error) {
	pref, err := s.prefs.Get(ctx, userID, activityID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		return nil, ErrPreferenceNotFound
	}
	return pref, nil
}

// FindBuddies scores every open candidate profile for the activity against
// the requester's profile and returns the matches ranked best first.
// Candidates that share no availability window are excluded entirely. Equal
// scores are broken by candidate ID ascending so the ordering is
// deterministic.
func (s *Service) FindBuddies(ctx context.Context, requesterID, activityID string) ([]BuddyMatch, error) {
	requester, err := s.prefs.Get(ctx, requesterID, activityID)
	if err != nil {
		return nil, err
	}
	if requester == nil || !requester.OpenToMatching {
		return nil, ErrNotOpenToMatching
	}

	candidates, err := s.prefs.ListOpen(ctx, activityID, requesterID)
	if err != nil {
		return nil, err
	}

	matches := make([]BuddyMatch, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.UserID == requesterID {
			continue
		}
		result := ScoreCompatibility(*requester, candidate)
		if len(result.CommonAvailability) == 0 {
			continue
		}
		matches = append(matches, BuddyMatch{
			CandidateID:        candidate.UserID,
			Score:              result.Score,
			CommonAvailability: result.CommonAvailability,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].CandidateID < matches[j].CandidateID
	})

	return matches, nil
}

// CreateRequestInput captures the payload from the API layer.
type CreateRequestInput struct {
	RequesterID string
	RecipientID string
	ActivityID  string
	Message     string
	ProposedAt  *time.Time
	Location    string
}

// CreateRequest validates the recipient and activity against the directory
// and inserts a pending request.
func (s *Service) CreateRequest(ctx context.Context, input CreateRequestInput) (*ActivityRequest, error) {
	if input.RequesterID == "" || input.RecipientID == "" || input.ActivityID == "" {
		return nil, fmt.Errorf("%w: requester, recipient, and activity are required", ErrInvalidInput)
	}
	if input.RequesterID == input.RecipientID {
		return nil, fmt.Errorf("%w: cannot request yourself as a buddy", ErrInvalidInput)
	}

	if ok, err := s.directory.UserExists(ctx, input.RecipientID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrRecipientNotFound
	}
	if ok, err := s.directory.ActivityExists(ctx, input.ActivityID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrActivityNotFound
	}

	now := time.Now().UTC()
	req := ActivityRequest{
		ID:          uuid.NewString(),
		RequesterID: input.RequesterID,
		RecipientID: input.RecipientID,
		ActivityID:  input.ActivityID,
		Message:     input.Message,
		ProposedAt:  input.ProposedAt,
		Location:    input.Location,
		Status:      RequestPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Respond transitions a pending request to a terminal state. Only the
// recipient may accept or decline; only the requester may cancel. Accepting
// creates the match record in the same transaction as the status update.
func (s *Service) Respond(ctx context.Context, requestID, actorID string, newStatus RequestStatus) (*ActivityRequest, error) {
	if !newStatus.Terminal() {
		return nil, fmt.Errorf("%w: %q is not a valid response status", ErrInvalidInput, newStatus)
	}

	req, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}

	if actorID != req.RequesterID && actorID != req.RecipientID {
		return nil, ErrNotAuthorized
	}
	switch newStatus {
	case RequestAccepted, RequestDeclined:
		if actorID != req.RecipientID {
			return nil, ErrNotAuthorized
		}
	case RequestCancelled:
		if actorID != req.RequesterID {
			return nil, ErrNotAuthorized
		}
	}

	// Fast path; the conditional update in Resolve closes the race.
	if req.Status.Terminal() {
		return nil, ErrRequestResolved
	}

	var match *ActivityMatch
	if newStatus == RequestAccepted {
		match = &ActivityMatch{
			ID:         uuid.NewString(),
			RequestID:  req.ID,
			User1ID:    req.RequesterID,
			User2ID:    req.RecipientID,
			ActivityID: req.ActivityID,
			MatchScore: 100,
			CreatedAt:  time.Now().UTC(),
		}
	}

	if err := s.requests.Resolve(ctx, req.ID, newStatus, match); err != nil {
		return nil, err
	}

	req.Status = newStatus
	req.UpdatedAt = time.Now().UTC()
	return req, nil
}

// ListRequests pages through the user's sent or received requests.
func (s *Service) ListRequests(ctx context.Context, userID string, role RequestRole, cursor *Cursor, limit int) ([]ActivityRequest, *Cursor, error) {
	return s.requests.ListForUser(ctx, userID, role, cursor, limit)
}
