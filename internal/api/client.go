// Package api provides the HTTP client for the Replify backend.
//
// The backend owns all real logic — authentication, AI handling,
// persistence, WhatsApp delivery. This client only speaks its REST
// contract and maps responses onto domain types.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhanhataka-sys/replify-dashboard/internal/domain"
)

// ErrNotFound indicates the requested resource does not exist (HTTP 404).
var ErrNotFound = errors.New("resource not found")

// Error is a non-2xx backend response. Detail carries the backend's
// error detail field verbatim when present, so callers can surface it
// to the user unchanged.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// Client talks to the Replify backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ResolveBusiness looks up the business registered for a user.
// Returns ErrNotFound when the user has no business yet.
func (c *Client) ResolveBusiness(ctx context.Context, userID string) (*domain.Business, error) {
	var business domain.Business
	query := url.Values{"user_id": {userID}}
	if err := c.getJSON(ctx, "/api/businesses/me", query, &business); err != nil {
		return nil, fmt.Errorf("resolve business: %w", err)
	}
	return &business, nil
}

// ListConversations fetches the conversation list for a business,
// optionally filtered by status. An empty status means no filter.
func (c *Client) ListConversations(ctx context.Context, businessID, status string) ([]domain.Conversation, error) {
	query := url.Values{"business_id": {businessID}}
	if status != "" {
		query.Set("status", status)
	}
	var conversations []domain.Conversation
	if err := c.getJSON(ctx, "/api/conversations", query, &conversations); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

// GetStats fetches the server-computed conversation aggregate.
func (c *Client) GetStats(ctx context.Context, businessID string) (*domain.Stats, error) {
	var stats domain.Stats
	query := url.Values{"business_id": {businessID}}
	if err := c.getJSON(ctx, "/api/stats", query, &stats); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &stats, nil
}

// ListMessages fetches the transcript of one conversation.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	var messages []domain.Message
	path := fmt.Sprintf("/api/conversations/%s/messages", url.PathEscape(conversationID))
	if err := c.getJSON(ctx, path, nil, &messages); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// SendReply posts a human reply to a conversation.
func (c *Client) SendReply(ctx context.Context, conversationID, message string) error {
	path := fmt.Sprintf("/api/conversations/%s/reply", url.PathEscape(conversationID))
	body := map[string]string{"message": message}
	if err := c.postJSON(ctx, path, body, nil); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// Takeover disables AI handling for a conversation.
func (c *Client) Takeover(ctx context.Context, conversationID string) error {
	path := fmt.Sprintf("/api/conversations/%s/takeover", url.PathEscape(conversationID))
	if err := c.postJSON(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("takeover: %w", err)
	}
	return nil
}

// Resolve closes a conversation.
func (c *Client) Resolve(ctx context.Context, conversationID string) error {
	path := fmt.Sprintf("/api/conversations/%s/resolve", url.PathEscape(conversationID))
	if err := c.postJSON(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	return nil
}

// RegisterBusiness completes onboarding and returns the new business id.
func (c *Client) RegisterBusiness(ctx context.Context, req *RegisterBusinessRequest) (string, error) {
	var resp struct {
		BusinessID string `json:"business_id"`
	}
	if err := c.postJSON(ctx, "/api/businesses/register", req, &resp); err != nil {
		return "", fmt.Errorf("register business: %w", err)
	}
	return resp.BusinessID, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed",
			"method", req.Method, "path", req.URL.Path, "request_id", requestID, "error", err)
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close response body", "error", closeErr)
		}
	}()

	c.logger.Debug("backend request",
		"method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestID)

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError builds an *Error from a non-2xx response, preserving the
// backend's detail field verbatim when present.
func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	var body struct {
		Detail string `json:"detail"`
		ErrMsg string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Detail != "" {
			apiErr.Detail = body.Detail
		} else if body.ErrMsg != "" {
			apiErr.Detail = body.ErrMsg
		}
	}
	return apiErr
}
