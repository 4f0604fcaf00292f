package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/buddy/internal/domain"
	"example.com/buddy/internal/events"
	"example.com/buddy/internal/observability"
)

// Repository provides Postgres-backed persistence for preferences, requests,
// matches, and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get loads the single preference row for (user, activity), or nil.
func (r *Repository) Get(ctx context.Context, userID, activityID string) (*domain.ActivityPreference, error) {
	const query = `SELECT user_id, activity_id, open_to_matching, equipment_status, transport_status, skill_level, location_radius_km, notes, availability, created_at, updated_at
        FROM activity_preferences WHERE user_id=$1 AND activity_id=$2`

	row := r.pool.QueryRow(ctx, query, userID, activityID)
	pref, err := scanPreference(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return pref, nil
}

// Save upserts the preference row.
func (r *Repository) Save(ctx context.Context, pref domain.ActivityPreference) error {
	availability, err := json.Marshal(pref.Availability)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO activity_preferences (user_id, activity_id, open_to_matching, equipment_status, transport_status, skill_level, location_radius_km, notes, availability, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        ON CONFLICT (user_id, activity_id) DO UPDATE SET
            open_to_matching=EXCLUDED.open_to_matching,
            equipment_status=EXCLUDED.equipment_status,
            transport_status=EXCLUDED.transport_status,
            skill_level=EXCLUDED.skill_level,
            location_radius_km=EXCLUDED.location_radius_km,
            notes=EXCLUDED.notes,
            availability=EXCLUDED.availability,
            updated_at=EXCLUDED.updated_at`

	_, err = r.pool.Exec(ctx, stmt,
		pref.UserID,
		pref.ActivityID,
		pref.OpenToMatching,
		string(pref.Equipment),
		string(pref.Transport),
		string(pref.Skill),
		pref.LocationRadiusKm,
		nullIfEmpty(pref.Notes),
		availability,
		pref.CreatedAt,
		pref.UpdatedAt,
	)
	return err
}

// ListOpen returns every opted-in preference for the activity except the
// excluded user's, in a stable order.
func (r *Repository) ListOpen(ctx context.Context, activityID, excludeUserID string) ([]domain.ActivityPreference, error) {
	const query = `SELECT user_id, activity_id, open_to_matching, equipment_status, transport_status, skill_level, location_radius_km, notes, availability, created_at, updated_at
        FROM activity_preferences
        WHERE activity_id=$1 AND user_id <> $2 AND open_to_matching
        ORDER BY created_at, user_id`

	rows, err := r.pool.Query(ctx, query, activityID, excludeUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []domain.ActivityPreference
	for rows.Next() {
		pref, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, *pref)
	}
	return prefs, rows.Err()
}

// Create persists the pending request and its notification event inside a
// single transaction.
func (r *Repository) Create(ctx context.Context, req domain.ActivityRequest) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertRequest = `INSERT INTO activity_requests (request_id, requester_id, recipient_id, activity_id, message, proposed_at, location, status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	_, err = tx.Exec(ctx, insertRequest,
		req.ID,
		req.RequesterID,
		req.RecipientID,
		req.ActivityID,
		nullIfEmpty(req.Message),
		req.ProposedAt,
		nullIfEmpty(req.Location),
		string(req.Status),
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, "request", req.ID, "buddy.request_created", req.RecipientID, events.BuddyRequestCreated{
		RequestID:   req.ID,
		RequesterID: req.RequesterID,
		RecipientID: req.RecipientID,
		ActivityID:  req.ActivityID,
		Message:     req.Message,
		ProposedAt:  req.ProposedAt,
		CreatedAt:   req.CreatedAt,
	}); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return err
	}
	observability.RecordRequestPersisted(req.CreatedAt)
	return nil
}

// GetRequest retrieves a request by ID, or nil.
func (r *Repository) GetRequest(ctx context.Context, requestID string) (*domain.ActivityRequest, error) {
	const query = `SELECT request_id, requester_id, recipient_id, activity_id, message, proposed_at, location, status, created_at, updated_at
        FROM activity_requests WHERE request_id=$1`

	req, err := scanRequest(r.pool.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return req, nil
}

// Resolve moves a pending request to a terminal state. The status update is
// conditional on the row still being pending, so two concurrent responders
// cannot both win; the loser observes ErrRequestResolved. When match is
// non-nil the match row and its event share the transaction, so an accepted
// request without its match can never be observed.
func (r *Repository) Resolve(ctx context.Context, requestID string, status domain.RequestStatus, match *domain.ActivityMatch) error {
	now := time.Now().UTC()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const update = `UPDATE activity_requests SET status=$2, updated_at=$3
        WHERE request_id=$1 AND status='pending'
        RETURNING requester_id, recipient_id, activity_id`

	var requesterID, recipientID, activityID string
	err = tx.QueryRow(ctx, update, requestID, string(status), now).Scan(&requesterID, &recipientID, &activityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = r.classifyResolveMiss(ctx, requestID)
		}
		return err
	}

	if match != nil {
		const insertMatch = `INSERT INTO activity_matches (match_id, request_id, user1_id, user2_id, activity_id, match_score, created_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7)`
		if _, err = tx.Exec(ctx, insertMatch,
			match.ID, match.RequestID, match.User1ID, match.User2ID, match.ActivityID, match.MatchScore, match.CreatedAt,
		); err != nil {
			return err
		}
	}

	if err = insertOutbox(ctx, tx, "request", requestID, "buddy.request_responded", requesterID, events.BuddyRequestResponded{
		RequestID:   requestID,
		RequesterID: requesterID,
		RecipientID: recipientID,
		ActivityID:  activityID,
		Status:      string(status),
		OccurredAt:  now,
	}); err != nil {
		return err
	}

	if match != nil {
		if err = insertOutbox(ctx, tx, "match", match.ID, "buddy.match_created", match.User1ID, events.BuddyMatchCreated{
			MatchID:    match.ID,
			RequestID:  match.RequestID,
			User1ID:    match.User1ID,
			User2ID:    match.User2ID,
			ActivityID: match.ActivityID,
			MatchScore: match.MatchScore,
			CreatedAt:  match.CreatedAt,
		}); err != nil {
			return err
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		return err
	}
	if match != nil {
		observability.RecordMatchCreated(match.CreatedAt)
	}
	return nil
}

// classifyResolveMiss distinguishes a missing request from one already
// resolved, after a conditional update touched zero rows.
func (r *Repository) classifyResolveMiss(ctx context.Context, requestID string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM activity_requests WHERE request_id=$1)`, requestID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrRequestNotFound
	}
	return domain.ErrRequestResolved
}

// ListForUser returns requests for one side of the exchange, newest first,
// with keyset pagination on (created_at, request_id).
func (r *Repository) ListForUser(ctx context.Context, userID string, role domain.RequestRole, cursor *domain.Cursor, limit int) ([]domain.ActivityRequest, *domain.Cursor, error) {
	column := "requester_id"
	if role == domain.RoleReceived {
		column = "recipient_id"
	}

	args := []interface{}{userID, limit}
	query := fmt.Sprintf(`SELECT request_id, requester_id, recipient_id, activity_id, message, proposed_at, location, status, created_at, updated_at
        FROM activity_requests WHERE %s=$1`, column)

	if cursor != nil {
		query += ` AND (created_at, request_id) < ($3, $4)`
		args = append(args, cursor.CreatedAt, cursor.ID)
	}

	query += ` ORDER BY created_at DESC, request_id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.ActivityRequest, 0, limit)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return results, nextCursor, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPreference(row rowScanner) (*domain.ActivityPreference, error) {
	var (
		pref         domain.ActivityPreference
		notes        *string
		availability []byte
	)
	if err := row.Scan(&pref.UserID, &pref.ActivityID, &pref.OpenToMatching, &pref.Equipment, &pref.Transport, &pref.Skill, &pref.LocationRadiusKm, &notes, &availability, &pref.CreatedAt, &pref.UpdatedAt); err != nil {
		return nil, err
	}
	if notes != nil {
		pref.Notes = *notes
	}
	if len(availability) > 0 {
		if err := json.Unmarshal(availability, &pref.Availability); err != nil {
			return nil, err
		}
	}
	return &pref, nil
}

func scanRequest(row rowScanner) (*domain.ActivityRequest, error) {
	var (
		req      domain.ActivityRequest
		message  *string
		location *string
	)
	if err := row.Scan(&req.ID, &req.RequesterID, &req.RecipientID, &req.ActivityID, &message, &req.ProposedAt, &location, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return nil, err
	}
	if message != nil {
		req.Message = *message
	}
	if location != nil {
		req.Location = *location
	}
	return &req, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, aggregateType, aggregateID, eventType, partitionKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta := eventCatalog[eventType]
	if meta.Topic == "" {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s", aggregateID, eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		aggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		partitionKey,
		body,
		dedupeKey,
	)
	return err
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	"buddy.request_created": {
		Topic:         "buddy_request_events",
		SchemaSubject: "buddy_request_events-value",
	},
	"buddy.request_responded": {
		Topic:         "buddy_request_events",
		SchemaSubject: "buddy_request_events-value",
	},
	"buddy.match_created": {
		Topic:         "buddy_match_events",
		SchemaSubject: "buddy_match_events-value",
	},
}
