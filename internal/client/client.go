// Package client is the typed HTTP client for the LegalEase admin API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/legalease/legalease-admin/internal/models"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the admin API. Detail carries the
// server's human-readable message when the body was a {"detail": ...}
// payload, and is empty otherwise.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("admin api: %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("admin api: unexpected status %d", e.StatusCode)
}

// Client talks to the admin service. The zero value is not usable; build one
// with New.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New builds a client for the admin API at baseURL, authenticating every
// request with the given bearer token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SetHTTPClient replaces the underlying HTTP client, mainly for tests.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// ListLockedAccounts fetches every currently locked account.
func (c *Client) ListLockedAccounts(ctx context.Context) ([]models.LockedAccount, error) {
	var payload struct {
		LockedAccounts []models.LockedAccount `json:"locked_accounts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/admin/users/locked", &payload); err != nil {
		return nil, err
	}
	return payload.LockedAccounts, nil
}

// UnlockResponse is the admin API's reply to an unlock request.
type UnlockResponse struct {
	Message      string `json:"message"`
	UserID       int64  `json:"user_id"`
	Email        string `json:"email"`
	Unlocked     bool   `json:"unlocked"`
	UnlockedBy   string `json:"unlocked_by,omitempty"`
	UnlockReason string `json:"unlock_reason,omitempty"`
}

// UnlockAccount asks the server to unlock the given user. The reason rides
// in the query string, space-encoded as %20.
func (c *Client) UnlockAccount(ctx context.Context, userID int64, reason string) (*UnlockResponse, error) {
	path := fmt.Sprintf("/api/v1/admin/users/%d/unlock", userID)
	if reason != "" {
		path += "?reason=" + encodeQueryValue(reason)
	}

	var payload UnlockResponse
	if err := c.do(ctx, http.MethodPost, path, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// encodeQueryValue percent-encodes a query value with spaces as %20 rather
// than the form-encoding plus sign.
func encodeQueryValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, body)
	}

	if out != nil {
		if err := json.NewDecoder(bytes.NewReader(body)).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// newAPIError extracts the detail string from an error body when present.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Detail = payload.Detail
	}
	return apiErr
}
