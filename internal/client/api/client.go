// Package api implements the HTTP client for the sync server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/avoronov/goalkeeper/internal/errs"
	"github.com/avoronov/goalkeeper/pkg/api"
)

//go:generate moq -out client_mock.go . ClientAPI

// ClientAPI is the abstract authenticated call surface the sync coordinator
// depends on.
type ClientAPI interface {
	// Register creates a new account.
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)

	// Login authenticates and returns a token pair.
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error)

	// Refresh exchanges a refresh token for a new token pair.
	Refresh(ctx context.Context, req api.RefreshRequest) (*api.TokenResponse, error)

	// BatchSync submits one batch of remote-bound operations. The
	// response preserves operation order.
	BatchSync(ctx context.Context, accessToken string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error)

	// DeltaSync fetches remote changes since the checkpoint
	// (unix milliseconds).
	DeltaSync(ctx context.Context, accessToken string, since int64) (*api.DeltaSyncResponse, error)
}

// Client is the HTTP implementation of ClientAPI.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var _ ClientAPI = (*Client)(nil)

// NewClient creates a new API client for the given server base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// carry the Authorization header across redirects
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login authenticates and returns a token pair.
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, req api.RefreshRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", "", req, &resp); err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// BatchSync submits one batch of remote-bound operations.
func (c *Client) BatchSync(ctx context.Context, accessToken string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
	var resp api.BatchSyncResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/sync/batch", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("batch sync request failed: %w", err)
	}
	return &resp, nil
}

// DeltaSync fetches remote changes since the checkpoint.
func (c *Client) DeltaSync(ctx context.Context, accessToken string, since int64) (*api.DeltaSyncResponse, error) {
	var resp api.DeltaSyncResponse
	path := "/api/v1/sync/delta?since=" + strconv.FormatInt(since, 10)
	if err := c.doRequest(ctx, http.MethodGet, path, accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("delta sync request failed: %w", err)
	}
	return &resp, nil
}

// doRequest performs one HTTP round trip and classifies failures into the
// engine's error taxonomy: transport and 5xx problems are transient
// NetworkErrors, 401/403 are AuthErrors.
func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, body, result interface{}) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Network(method+" "+path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Network(method+" "+path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.classifyStatus(method+" "+path, resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) classifyStatus(op string, status int, body []byte) error {
	message := string(body)
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		message = errResp.Error
		if errResp.Message != "" {
			message += ": " + errResp.Message
		}
	}

	serverErr := fmt.Errorf("server returned %d: %s", status, message)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errs.Auth(op, serverErr)
	case status >= 500 || status == http.StatusRequestTimeout || status == http.StatusTooManyRequests:
		return errs.Network(op, serverErr)
	default:
		return serverErr
	}
}
