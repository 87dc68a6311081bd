// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTimeout bounds a single request/response exchange.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps response bodies (10MB).
	MaxResponseSize = 10 * 1024 * 1024
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotAuthenticated is returned when a call requires a token the
	// client does not hold yet.
	ErrNotAuthenticated = errors.New("non authentifié")

	// ErrAuthFailed is returned when the server refuses the credentials.
	ErrAuthFailed = errors.New("échec de l'authentification")

	// ErrBadResponse is returned when the server's reply cannot be decoded.
	ErrBadResponse = errors.New("réponse du serveur illisible")
)

// APIError is a non-2xx response carrying the server's message.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("erreur serveur (statut %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("erreur serveur (statut %d)", e.Status)
}

// =============================================================================
// SHARED HTTP CLIENT
// =============================================================================

// sharedClient pools connections across all API calls.
var sharedClient = &http.Client{
	Timeout: DefaultTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	},
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the restitution backend. The zero credentials are filled
// in by Login; accessors are safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu          sync.RWMutex
	token       string
	userID      int64
	userName    string
	projectID   int64
	projectName string
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: sharedClient,
	}
}

// WithHTTPClient overrides the HTTP client. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithSession seeds an existing token and project, bypassing Login.
func (c *Client) WithSession(token, projectName string, projectID int64) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.projectName = projectName
	c.projectID = projectID
	return c
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the current bearer token, empty before Login.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// IsAuthenticated reports whether Login has succeeded.
func (c *Client) IsAuthenticated() bool {
	return c.Token() != ""
}

// UserID returns the logged-in user's ID.
func (c *Client) UserID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// UserName returns the logged-in user's display name.
func (c *Client) UserName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userName
}

// ProjectID returns the active project's ID.
func (c *Client) ProjectID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.projectID
}

// ProjectName returns the active project's name.
func (c *Client) ProjectName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.projectName
}

// =============================================================================
// LOGIN
// =============================================================================

// LoginResult is the outcome of a successful authentication.
type LoginResult struct {
	Token       string
	UserID      int64
	UserName    string
	ProjectID   int64
	ProjectName string
}

// Login authenticates against the backend for one project and stores the
// session on the client.
func (c *Client) Login(ctx context.Context, email, password string, projectID int64) (*LoginResult, error) {
	payload := struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		ProjectID int64  `json:"projet_id"`
	}{Email: email, Password: password, ProjectID: projectID}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"user"`
		ProjectName string `json:"projet_name"`
		ProjectID   int64  `json:"projet_id"`
		Message     string `json:"message"`
	}

	err := c.doJSON(ctx, http.MethodPost, "/api/login", payload, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			if apiErr.Message != "" {
				return nil, fmt.Errorf("%w : %s", ErrAuthFailed, apiErr.Message)
			}
			return nil, ErrAuthFailed
		}
		return nil, err
	}

	if resp.Token == "" {
		if resp.Message != "" {
			return nil, fmt.Errorf("%w : %s", ErrAuthFailed, resp.Message)
		}
		return nil, ErrAuthFailed
	}

	c.mu.Lock()
	c.token = resp.Token
	c.userID = resp.User.ID
	c.userName = resp.User.Name
	c.projectID = resp.ProjectID
	c.projectName = resp.ProjectName
	c.mu.Unlock()

	return &LoginResult{
		Token:       resp.Token,
		UserID:      resp.User.ID,
		UserName:    resp.User.Name,
		ProjectID:   resp.ProjectID,
		ProjectName: resp.ProjectName,
	}, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// doJSON sends a JSON request and decodes a JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encodage de la requête: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("création de la requête: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuthHeader(req)

	return c.do(req, out)
}

// do executes a prepared request and decodes the response.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requête vers %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("lecture de la réponse: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: extractMessage(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

// setAuthHeader attaches the bearer token when one is held.
func (c *Client) setAuthHeader(req *http.Request) {
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// extractMessage pulls a {"message": ...} out of an error body, falling
// back to the trimmed raw text.
func extractMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(raw))
}
