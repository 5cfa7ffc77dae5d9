// Package homeassistant implements the AutomationClient port against a Home
// Assistant instance's service-call REST API.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
	"github.com/ericfisherdev/bearerwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AutomationClient = (*Client)(nil)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// StatusError is returned when the instance answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("automation endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("automation endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// Client posts access tokens to an automation service endpoint.
type Client struct {
	http *http.Client
	path string
}

// NewClient creates a Client whose requests time out after timeout. path is
// appended to each target's base URL.
func NewClient(timeout time.Duration, path string) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
		path: path,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, path string) *Client {
	return &Client{http: httpClient, path: path}
}

type updateTokenRequest struct {
	AccessToken string `json:"access_token"`
}

// UpdateToken POSTs {"access_token": accessToken} to the target's service
// endpoint, authenticated with the target's long-lived token. Any transport
// failure or non-2xx status is an error. The call is never retried.
func (c *Client) UpdateToken(ctx context.Context, target model.AutomationTarget, accessToken string) error {
	body, err := json.Marshal(updateTokenRequest{AccessToken: accessToken})
	if err != nil {
		return fmt.Errorf("marshal update token request: %w", err)
	}

	endpoint := strings.TrimRight(target.BaseURL, "/") + c.path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create update token request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+target.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
