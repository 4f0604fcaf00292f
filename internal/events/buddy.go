// Package events defines the payload contracts published through the outbox.
package events

import "time"

// BuddyRequestCreated is emitted when a new buddy request is inserted.
type BuddyRequestCreated struct {
	RequestID   string     `json:"request_id"`
	RequesterID string     `json:"requester_id"`
	RecipientID string     `json:"recipient_id"`
	ActivityID  string     `json:"activity_id"`
	Message     string     `json:"message,omitempty"`
	ProposedAt  *time.Time `json:"proposed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// BuddyRequestResponded is emitted when a request leaves the pending state.
type BuddyRequestResponded struct {
	RequestID   string    `json:"request_id"`
	RequesterID string    `json:"requester_id"`
	RecipientID string    `json:"recipient_id"`
	ActivityID  string    `json:"activity_id"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BuddyMatchCreated is emitted when an accepted request produces a match.
type BuddyMatchCreated struct {
	MatchID    string    `json:"match_id"`
	RequestID  string    `json:"request_id"`
	User1ID    string    `json:"user1_id"`
	User2ID    string    `json:"user2_id"`
	ActivityID string    `json:"activity_id"`
	MatchScore int       `json:"match_score"`
	CreatedAt  time.Time `json:"created_at"`
}
