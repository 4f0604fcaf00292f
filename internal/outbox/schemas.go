package outbox

const buddyRequestCreatedSchema = `{
  "type": "object",
  "title": "BuddyRequestCreated",
  "properties": {
    "request_id": {"type": "string"},
    "requester_id": {"type": "string"},
    "recipient_id": {"type": "string"},
    "activity_id": {"type": "string"},
    "message": {"type": "string"},
    "proposed_at": {"type": "string", "format": "date-time"},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["request_id", "requester_id", "recipient_id", "activity_id", "created_at"],
  "additionalProperties": false
}`

const buddyRequestRespondedSchema = `{
  "type": "object",
  "title": "BuddyRequestResponded",
  "properties": {
    "request_id": {"type": "string"},
    "requester_id": {"type": "string"},
    "recipient_id": {"type": "string"},
    "activity_id": {"type": "string"},
    "status": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["request_id", "requester_id", "recipient_id", "activity_id", "status", "occurred_at"],
  "additionalProperties": false
}`

const buddyMatchCreatedSchema = `{
  "type": "object",
  "title": "BuddyMatchCreated",
  "properties": {
    "match_id": {"type": "string"},
    "request_id": {"type": "string"},
    "user1_id": {"type": "string"},
    "user2_id": {"type": "string"},
    "activity_id": {"type": "string"},
    "match_score": {"type": "integer"},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["match_id", "request_id", "user1_id", "user2_id", "activity_id", "match_score", "created_at"],
  "additionalProperties": false
}`
