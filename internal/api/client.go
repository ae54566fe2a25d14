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
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/pulsechat-tui/internal/model"
)

// Configuration constants for the backend API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of attempts for transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay caps the backoff delay.
	retryMaxDelay = 8 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared HTTP client for all backend requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: DefaultTimeout,
}

// Error variables for common backend errors.
var (
	// ErrNotConfigured indicates the client has no base URL.
	ErrNotConfigured = errors.New("backend URL not configured")

	// ErrUnauthorized indicates a missing, invalid, or expired token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")
)

// =============================================================================
// CLIENT
// =============================================================================

// Client is a client for the chat backend's REST API.
type Client struct {
	baseURL    string
	token      string
	maxRetries int

	// limiter throttles outgoing requests so a hot UI loop (retry spam,
	// rapid chat switching) cannot hammer the backend.
	limiter *rate.Limiter
}

// NewClient creates a backend client for the given base URL. The URL should
// include the scheme and any path prefix, e.g. "https://chat.example.com/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		maxRetries: DefaultMaxRetries,
		limiter:    rate.NewLimiter(rate.Limit(10), 20),
	}
}

// WithToken sets the bearer token used for authenticated endpoints.
func (c *Client) WithToken(token string) *Client {
	c.token = strings.TrimSpace(token)
	return c
}

// WithMaxRetries sets the maximum number of attempts for transient errors.
func (c *Client) WithMaxRetries(n int) *Client {
	if n > 0 {
		c.maxRetries = n
	}
	return c
}

// SetToken replaces the bearer token (after sign-in).
func (c *Client) SetToken(token string) {
	c.token = strings.TrimSpace(token)
}

// IsConfigured reports whether the client has a base URL.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// SignIn exchanges credentials for a user and bearer token.
func (c *Client) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/sign-in", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignUp registers a new account and returns the signed-in user and token.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/sign-up", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// =============================================================================
// CHAT ENDPOINTS
// =============================================================================

// FetchChats retrieves the chat list.
func (c *Client) FetchChats(ctx context.Context) ([]model.Chat, error) {
	var resp chatsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/chat/all", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

// FetchChat retrieves one chat with its message history.
func (c *Client) FetchChat(ctx context.Context, chatID string) (model.Conversation, error) {
	var resp singleChatResponse
	path := "/chat/" + url.PathEscape(chatID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return model.Conversation{}, err
	}
	return model.Conversation{Chat: resp.Chat, Messages: resp.Messages}, nil
}

// CreateChat creates a chat and returns it.
func (c *Client) CreateChat(ctx context.Context, req CreateChatRequest) (model.Chat, error) {
	var resp createChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/chat/create", req, &resp); err != nil {
		return model.Chat{}, err
	}
	return resp.Chat, nil
}

// SendMessage posts a message. For AI chats the response may carry the AI
// reply; see SendMessageResponse for why it must not be inserted locally.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	var resp SendMessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/chat/message/send", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// =============================================================================
// USER ENDPOINTS
// =============================================================================

// FetchAllUsers retrieves the user directory.
func (c *Client) FetchAllUsers(ctx context.Context) ([]model.Participant, error) {
	var resp usersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/user/all", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// UploadAvatar uploads a new avatar image (multipart) and returns its URL.
func (c *Client) UploadAvatar(ctx context.Context, filename string, data io.Reader) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("avatar", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return "", fmt.Errorf("failed to read avatar data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/user/avatar", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setAuth(req)

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := readResponse(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", c.handleErrorResponse(resp.StatusCode, raw)
	}

	var out avatarResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return out.AvatarURL, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// doJSON performs a JSON request with retry on transient failures and
// decodes the response into out (which may be nil for empty responses).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffDelay(attempt)):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := c.doOnce(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doOnce performs a single request/decode cycle.
func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req)

	start := time.Now()
	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Request/response logs carry no bodies and no auth headers.
	log.Printf("api: %s %s -> %d (%v)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	raw, err := readResponse(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.handleErrorResponse(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// setAuth attaches the bearer token when present.
func (c *Client) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", "pulsechat/0.3.0")
}

// readResponse reads the body with a size cap.
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(raw)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return raw, nil
}

// handleErrorResponse converts HTTP error responses to typed Go errors.
func (c *Client) handleErrorResponse(statusCode int, raw []byte) error {
	var body errorResponse
	msg := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		msg = body.Message
	}

	apiErr := &APIError{Status: statusCode, Message: msg}
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Error())
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Error())
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Error())
	default:
		return apiErr
	}
}

// isRetryable reports whether an error should trigger another attempt.
func isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 && apiErr.Status < 600
	}
	return false
}

// backoffDelay returns the delay before the given retry attempt.
func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
