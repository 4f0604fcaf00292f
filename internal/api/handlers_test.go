package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/buddy/internal/auth"
	"example.com/buddy/internal/directory"
	"example.com/buddy/internal/domain"
)

func newTestHandler(prefs *mockPrefRepo, requests *mockRequestRepo) http.Handler {
	if prefs == nil {
		prefs = &mockPrefRepo{}
	}
	if requests == nil {
		requests = &mockRequestRepo{}
	}
	dir := &mockDirectory{
		users:      map[string]bool{"alice": true, "bob": true},
		activities: map[string]bool{"tennis": true},
	}
	service := domain.NewService(prefs, requests, dir)
	handler := NewHandler(service, dir)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func authedRequest(method, target, body string, scopes ...string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	scopeSet := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		scopeSet[scope] = struct{}{}
	}
	claims := &auth.Claims{
		Subject:   "alice",
		Scopes:    scopeSet,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func TestFindBuddiesSuccess(t *testing.T) {
	slot := []domain.TimeSlot{{StartMinute: 18 * 60, EndMinute: 20 * 60}}
	requester := domain.ActivityPreference{
		UserID: "alice", ActivityID: "tennis", OpenToMatching: true,
		Equipment: domain.EquipmentNotNeeded, Transport: domain.TransportPublicTransit,
		Skill:        domain.SkillIntermediate,
		Availability: []domain.DayAvailability{{Day: domain.Monday, Slots: slot}},
	}
	candidate := requester
	candidate.UserID = "bob"

	prefs := &mockPrefRepo{
		prefs: map[string]*domain.ActivityPreference{"alice": &requester},
		open:  []domain.ActivityPreference{candidate},
	}
	handler := newTestHandler(prefs, nil)

	req := authedRequest(http.MethodGet, "/v1/activities/tennis/buddies", "", auth.ScopeBuddiesRead)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp FindBuddiesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 match got %d", len(resp.Items))
	}
	if resp.Items[0].CandidateID != "bob" {
		t.Fatalf("unexpected candidate %s", resp.Items[0].CandidateID)
	}
	// 0.5*(120/600) + 0.2 + 0.2 + 0.1 = 0.6
	if resp.Items[0].MatchScore != 60 {
		t.Fatalf("expected score 60 got %d", resp.Items[0].MatchScore)
	}
	if resp.Items[0].Profile == nil || resp.Items[0].Profile.Name != "Bob" {
		t.Fatalf("expected decorated profile, got %+v", resp.Items[0].Profile)
	}
	if len(resp.Items[0].CommonAvailability) != 1 {
		t.Fatalf("expected common availability, got %+v", resp.Items[0].CommonAvailability)
	}
	if got := resp.Items[0].CommonAvailability[0].Slots[0]; got.Start != "18:00" || got.End != "20:00" {
		t.Fatalf("unexpected slot %+v", got)
	}
}

func TestFindBuddiesWithoutPreference(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := authedRequest(http.MethodGet, "/v1/activities/tennis/buddies", "", auth.ScopeBuddiesRead)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestFindBuddiesRequiresClaims(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/activities/tennis/buddies", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestSavePreferenceRejectsBadClock(t *testing.T) {
	handler := newTestHandler(nil, nil)

	body := `{
		"open_to_matching": true,
		"equipment_status": "not_needed",
		"transport_status": "walking_distance",
		"skill_level": "beginner",
		"availability": [{"day": "monday", "slots": [{"start": "18:xx", "end": "20:00"}]}]
	}`
	req := authedRequest(http.MethodPut, "/v1/activities/tennis/preference", body, auth.ScopeBuddiesWrite)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSavePreferenceRoundTrip(t *testing.T) {
	prefs := &mockPrefRepo{prefs: map[string]*domain.ActivityPreference{}}
	handler := newTestHandler(prefs, nil)

	body := `{
		"open_to_matching": true,
		"equipment_status": "can_share",
		"transport_status": "have_car",
		"skill_level": "advanced",
		"location_radius_km": 10,
		"availability": [{"day": "saturday", "slots": [{"start": "09:30", "end": "11:00"}]}]
	}`
	req := authedRequest(http.MethodPut, "/v1/activities/tennis/preference", body, auth.ScopeBuddiesWrite)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var view PreferenceView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.UserID != "alice" || view.ActivityID != "tennis" {
		t.Fatalf("unexpected identity %s/%s", view.UserID, view.ActivityID)
	}
	if view.Availability[0].Slots[0].Start != "09:30" {
		t.Fatalf("clock did not round-trip: %+v", view.Availability[0].Slots[0])
	}
	if len(prefs.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(prefs.saved))
	}
}

func TestSavePreferenceRequiresWriteScope(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := authedRequest(http.MethodPut, "/v1/activities/tennis/preference", `{}`, auth.ScopeBuddiesRead)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
}

func TestCreateRequestSuccess(t *testing.T) {
	requests := &mockRequestRepo{}
	handler := newTestHandler(nil, requests)

	body := `{"recipient_id": "bob", "activity_id": "tennis", "message": "weekend game?"}`
	req := authedRequest(http.MethodPost, "/v1/requests", body, auth.ScopeBuddiesWrite)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var view RequestView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.Status != "pending" {
		t.Fatalf("expected pending got %s", view.Status)
	}
	if view.RequesterID != "alice" || view.RecipientID != "bob" {
		t.Fatalf("unexpected parties %s -> %s", view.RequesterID, view.RecipientID)
	}
	if len(requests.created) != 1 {
		t.Fatalf("expected one insert, got %d", len(requests.created))
	}
}

func TestCreateRequestUnknownRecipient(t *testing.T) {
	handler := newTestHandler(nil, nil)

	body := `{"recipient_id": "nobody", "activity_id": "tennis"}`
	req := authedRequest(http.MethodPost, "/v1/requests", body, auth.ScopeBuddiesWrite)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRespondForbiddenForRequester(t *testing.T) {
	now := time.Now().UTC()
	requests := &mockRequestRepo{existing: map[string]*domain.ActivityRequest{
		"req-1": {
			ID: "req-1", RequesterID: "alice", RecipientID: "bob",
			ActivityID: "tennis", Status: domain.RequestPending,
			CreatedAt: now, UpdatedAt: now,
		},
	}}
	handler := newTestHandler(nil, requests)

	// alice is the requester; accepting is the recipient's call.
	req := authedRequest(http.MethodPost, "/v1/requests/req-1/respond", `{"status": "accepted"}`, auth.ScopeBuddiesWrite)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRespondConflictOnResolved(t *testing.T) {
	now := time.Now().UTC()
	requests := &mockRequestRepo{existing: map[string]*domain.ActivityRequest{
		"req-1": {
			ID: "req-1", RequesterID: "bob", RecipientID: "alice",
			ActivityID: "tennis", Status: domain.RequestDeclined,
			CreatedAt: now, UpdatedAt: now,
		},
	}}
	handler := newTestHandler(nil, requests)

	req := authedRequest(http.MethodPost, "/v1/requests/req-1/respond", `{"status": "accepted"}`, auth.ScopeBuddiesWrite)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRespondRejectsUnknownStatus(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := authedRequest(http.MethodPost, "/v1/requests/req-1/respond", `{"status": "maybe"}`, auth.ScopeBuddiesWrite)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestListRequestsPaging(t *testing.T) {
	now := time.Now().UTC()
	requests := &mockRequestRepo{
		page: []domain.ActivityRequest{
			{
				ID: "req-2", RequesterID: "bob", RecipientID: "alice",
				ActivityID: "tennis", Status: domain.RequestPending,
				CreatedAt: now, UpdatedAt: now,
			},
		},
		next: &domain.Cursor{CreatedAt: now, ID: "req-2"},
	}
	handler := newTestHandler(nil, requests)

	req := authedRequest(http.MethodGet, "/v1/requests?role=received&limit=1", "", auth.ScopeBuddiesRead)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp ListRequestsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].RequestID != "req-2" {
		t.Fatalf("unexpected page %+v", resp.Items)
	}
	if resp.NextCursor == "" {
		t.Fatalf("expected a next cursor")
	}
	if requests.lastRole != domain.RoleReceived {
		t.Fatalf("expected received role, got %s", requests.lastRole)
	}
	if requests.lastLimit != 1 {
		t.Fatalf("expected limit 1, got %d", requests.lastLimit)
	}
}

func TestListRequestsRejectsBadRole(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := authedRequest(http.MethodGet, "/v1/requests?role=everything", "", auth.ScopeBuddiesRead)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"00:00", 0, true},
		{"09:30", 570, true},
		{"24:00", 1440, true},
		{"24:01", 0, false},
		{"25:00", 0, false},
		{"18:60", 0, false},
		{"1800", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := parseClock(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("parseClock(%q) unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("parseClock(%q) = %d, want %d", tc.in, got, tc.want)
			}
		} else if err == nil {
			t.Fatalf("parseClock(%q) expected error", tc.in)
		}
	}
}

type mockPrefRepo struct {
	prefs map[string]*domain.ActivityPreference
	open  []domain.ActivityPreference
	saved []domain.ActivityPreference
}

func (m *mockPrefRepo) Get(ctx context.Context, userID, activityID string) (*domain.ActivityPreference, error) {
	pref, ok := m.prefs[userID]
	if !ok {
		return nil, nil
	}
	return pref, nil
}

func (m *mockPrefRepo) Save(ctx context.Context, pref domain.ActivityPreference) error {
	m.saved = append(m.saved, pref)
	return nil
}

func (m *mockPrefRepo) ListOpen(ctx context.Context, activityID, excludeUserID string) ([]domain.ActivityPreference, error) {
	return m.open, nil
}

type mockRequestRepo struct {
	created  []domain.ActivityRequest
	existing map[string]*domain.ActivityRequest
	page     []domain.ActivityRequest
	next     *domain.Cursor

	lastRole  domain.RequestRole
	lastLimit int
}

func (m *mockRequestRepo) Create(ctx context.Context, req domain.ActivityRequest) error {
	m.created = append(m.created, req)
	return nil
}

func (m *mockRequestRepo) GetRequest(ctx context.Context, requestID string) (*domain.ActivityRequest, error) {
	return m.existing[requestID], nil
}

func (m *mockRequestRepo) Resolve(ctx context.Context, requestID string, status domain.RequestStatus, match *domain.ActivityMatch) error {
	return nil
}

func (m *mockRequestRepo) ListForUser(ctx context.Context, userID string, role domain.RequestRole, cursor *domain.Cursor, limit int) ([]domain.ActivityRequest, *domain.Cursor, error) {
	m.lastRole = role
	m.lastLimit = limit
	return m.page, m.next, nil
}

type mockDirectory struct {
	users      map[string]bool
	activities map[string]bool
}

func (m *mockDirectory) UserExists(ctx context.Context, userID string) (bool, error) {
	return m.users[userID], nil
}

func (m *mockDirectory) ActivityExists(ctx context.Context, activityID string) (bool, error) {
	return m.activities[activityID], nil
}

func (m *mockDirectory) GetUserSummary(ctx context.Context, userID string) (*directory.UserSummary, error) {
	if !m.users[userID] {
		return nil, nil
	}
	name := strings.ToUpper(userID[:1]) + userID[1:]
	return &directory.UserSummary{ID: userID, Name: name}, nil
}
