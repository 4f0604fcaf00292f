// Package directory talks to the platform's user directory and activity
// catalog. The buddy engine uses it to verify request targets and to decorate
// match results with display profiles; nothing here feeds scoring.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// UserSummary carries the display attributes of a user.
type UserSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	University string `json:"university,omitempty"`
}

// Client calls the directory service over HTTP with a service bearer token.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewClient constructs a Client.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// UserExists reports whether the directory knows the user.
func (c *Client) UserExists(ctx context.Context, userID string) (bool, error) {
	return c.exists(ctx, "/v1/users/"+userID)
}

// ActivityExists reports whether the catalog knows the activity.
func (c *Client) ActivityExists(ctx context.Context, activityID string) (bool, error) {
	return c.exists(ctx, "/v1/activities/"+activityID)
}

// GetUserSummary fetches display attributes for one user. Returns nil without
// error on 404 so callers can degrade decoration gracefully.
func (c *Client) GetUserSummary(ctx context.Context, userID string) (*UserSummary, error) {
	resp, err := c.get(ctx, "/v1/users/"+userID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("directory: unexpected status %d for user %s", resp.StatusCode, userID)
	}

	var summary UserSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) exists(ctx context.Context, path string) (bool, error) {
	resp, err := c.get(ctx, path)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 300:
		return false, fmt.Errorf("directory: unexpected status %d for %s", resp.StatusCode, path)
	default:
		return true, nil
	}
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}
