// Package api exposes HTTP handlers for the buddy service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"example.com/buddy/internal/auth"
	"example.com/buddy/internal/directory"
	"example.com/buddy/internal/domain"
	"example.com/buddy/internal/observability"
	"example.com/buddy/internal/persistence"
)

// ProfileSource supplies display profiles for match decoration.
type ProfileSource interface {
	GetUserSummary(ctx context.Context, userID string) (*directory.UserSummary, error)
}

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service  *domain.Service
	profiles ProfileSource
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, profiles ProfileSource) *Handler {
	return &Handler{service: service, profiles: profiles}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/activities/", h.activityScoped)
	mux.HandleFunc("/v1/requests", h.requests)
	mux.HandleFunc("/v1/requests/", h.requestByID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// activityScoped dispatches /v1/activities/{id}/preference and
// /v1/activities/{id}/buddies.
func (h *Handler) activityScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
		return
	}
	activityID := parts[0]

	switch parts[1] {
	case "preference":
		switch r.Method {
		case http.MethodPut:
			h.savePreference(w, r, activityID)
		case http.MethodGet:
			h.getPreference(w, r, activityID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		}
	case "buddies":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		h.findBuddies(w, r, activityID)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
	}
}

func (h *Handler) savePreference(w http.ResponseWriter, r *http.Request, activityID string) {
	claims, ok := requireScope(w, r, auth.ScopeBuddiesWrite)
	if !ok {
		return
	}

	var req PreferencePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	pref, err := req.toDomain(claims.Subject, activityID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	saved, err := h.service.SavePreference(r.Context(), pref)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreferenceView(*saved))
}

func (h *Handler) getPreference(w http.ResponseWriter, r *http.Request, activityID string) {
	claims, ok := requireScope(w, r, auth.ScopeBuddiesRead, auth.ScopeBuddiesWrite)
	if !ok {
		return
	}

	pref, err := h.service.GetPreference(r.Context(), claims.Subject, activityID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreferenceView(*pref))
}

func (h *Handler) findBuddies(w http.ResponseWriter, r *http.Request, activityID string) {
	claims, ok := requireScope(w, r, auth.ScopeBuddiesRead, auth.ScopeBuddiesWrite)
	if !ok {
		return
	}

	matches, err := h.service.FindBuddies(r.Context(), claims.Subject, activityID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	observability.RecordSearchResults(len(matches))

	items := make([]BuddyMatchView, 0, len(matches))
	for _, match := range matches {
		view := BuddyMatchView{
			CandidateID:        match.CandidateID,
			MatchScore:         match.Score,
			CommonAvailability: toAvailabilityPayload(match.CommonAvailability),
		}
		if h.profiles != nil {
			// Decoration is best-effort; a directory outage should not
			// make matching unavailable.
			profile, err := h.profiles.GetUserSummary(r.Context(), match.CandidateID)
			if err != nil {
				log.Printf("directory lookup failed for %s: %v", match.CandidateID, err)
			} else {
				view.Profile = profile
			}
		}
		items = append(items, view)
	}

	writeJSON(w, http.StatusOK, FindBuddiesResponse{Items: items})
}

func (h *Handler) requests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createRequest(w, r)
	case http.MethodGet:
		h.listRequests(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) requestByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/requests/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] != "respond" {
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	h.respond(w, r, parts[0])
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeBuddiesWrite)
	if !ok {
		return
	}

	var req CreateRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	created, err := h.service.CreateRequest(r.Context(), domain.CreateRequestInput{
		RequesterID: claims.Subject,
		RecipientID: req.RecipientID,
		ActivityID:  req.ActivityID,
		Message:     req.Message,
		ProposedAt:  req.ProposedAt,
		Location:    req.Location,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestView(*created))
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, requestID string) {
	claims, ok := requireScope(w, r, auth.ScopeBuddiesWrite)
	if !ok {
		return
	}

	var req RespondPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	status, err := domain.ParseResponseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	updated, err := h.service.Respond(r.Context(), requestID, claims.Subject, status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestView(*updated))
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeBuddiesRead, auth.ScopeBuddiesWrite)
	if !ok {
		return
	}

	role := domain.RoleReceived
	if raw := r.URL.Query().Get("role"); raw != "" {
		parsed, err := domain.ParseRequestRole(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		role = parsed
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			if parsed > 100 {
				parsed = 100
			}
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	requests, next, err := h.service.ListRequests(r.Context(), claims.Subject, role, cursor, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]RequestView, 0, len(requests))
	for _, req := range requests {
		items = append(items, toRequestView(req))
	}
	writeJSON(w, http.StatusOK, ListRequestsResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

// requireScope extracts claims and checks that at least one scope is present.
func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", fmt.Sprintf("scope %s required", scopes[0]))
	return nil, false
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrPreferenceNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrRecipientNotFound),
		errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrNotOpenToMatching):
		writeError(w, http.StatusPreconditionFailed, "precondition_failed", "set an open preference first")
	case errors.Is(err, domain.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrRequestResolved):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
