package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nhanhataka-sys/replify-dashboard/internal/domain"
	"github.com/nhanhataka-sys/replify-dashboard/internal/store"
)

// HTTPClient implements Client against the auth service's REST API,
// persisting the session through a store.Repository so a restart can
// restore the signed-in user.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	repo    store.Repository
	logger  *slog.Logger

	mu          sync.Mutex
	session     Session
	accessToken string
	subscribers map[int]func(Session)
	nextSubID   int
}

// NewHTTPClient creates an auth client. The session starts in the
// loading state until Restore is called.
func NewHTTPClient(baseURL string, timeout time.Duration, repo store.Repository, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: timeout},
		repo:        repo,
		logger:      logger,
		session:     Session{Loading: true},
		subscribers: make(map[int]func(Session)),
	}
}

// Restore loads the persisted session, if any, and resolves the
// loading state. It must be called exactly once at startup.
func (c *HTTPClient) Restore(ctx context.Context) {
	stored, err := c.repo.LoadSession(ctx)
	if err != nil {
		c.logger.Warn("failed to restore session", "error", err)
	}

	c.mu.Lock()
	if stored != nil {
		c.session = Session{User: &domain.User{ID: stored.UserID, Email: stored.Email}}
		c.accessToken = stored.AccessToken
	} else {
		c.session = Session{}
	}
	c.mu.Unlock()

	if stored != nil {
		c.logger.Info("session restored", "user_id", stored.UserID)
	} else {
		c.logger.Info("no stored session")
	}
	c.notify()
}

// SignIn authenticates with email and password.
func (c *HTTPClient) SignIn(ctx context.Context, email, password string) error {
	user, token, err := c.postCredentials(ctx, "/auth/v1/signin", email, password)
	if err != nil {
		return err
	}

	c.setSession(ctx, user, token)
	c.logger.Info("signed in", "user_id", user.ID)
	return nil
}

// SignUp creates a new account and signs it in.
func (c *HTTPClient) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	user, token, err := c.postCredentials(ctx, "/auth/v1/signup", email, password)
	if err != nil {
		return nil, err
	}

	c.setSession(ctx, user, token)
	c.logger.Info("signed up", "user_id", user.ID)
	return user, nil
}

// SignOut ends the session. The backend call is best-effort; the
// local session is cleared regardless.
func (c *HTTPClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()

	if token != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/signout", nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+token)
			if resp, doErr := c.http.Do(req); doErr != nil {
				c.logger.Warn("sign-out request failed", "error", doErr)
			} else {
				_ = resp.Body.Close()
			}
		}
	}

	if err := c.repo.ClearSession(ctx); err != nil {
		c.logger.Warn("failed to clear stored session", "error", err)
	}

	c.mu.Lock()
	c.session = Session{}
	c.accessToken = ""
	c.mu.Unlock()

	c.logger.Info("signed out")
	c.notify()
	return nil
}

// Session returns the current session state.
func (c *HTTPClient) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Subscribe registers a callback invoked on every session change.
func (c *HTTPClient) Subscribe(fn func(Session)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *HTTPClient) setSession(ctx context.Context, user *domain.User, token string) {
	stored := &store.StoredSession{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: token,
		CreatedAt:   time.Now(),
	}
	if err := c.repo.SaveSession(ctx, stored); err != nil {
		// The in-memory session still works for this run.
		c.logger.Warn("failed to persist session", "error", err)
	}

	c.mu.Lock()
	c.session = Session{User: user}
	c.accessToken = token
	c.mu.Unlock()

	c.notify()
}

// notify delivers the current session to all subscribers. Callbacks
// run outside the client lock.
func (c *HTTPClient) notify() {
	c.mu.Lock()
	session := c.session
	callbacks := make([]func(Session), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		callbacks = append(callbacks, fn)
	}
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn(session)
	}
}

func (c *HTTPClient) postCredentials(ctx context.Context, path, email, password string) (*domain.User, string, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, "", fmt.Errorf("encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("auth request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close auth response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&body); decodeErr != nil || body.Message == "" {
			body.Message = fmt.Sprintf("authentication failed (%d)", resp.StatusCode)
		}
		return nil, "", &Error{Message: body.Message}
	}

	var body struct {
		User        domain.User `json:"user"`
		AccessToken string      `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, "", fmt.Errorf("decode auth response: %w", err)
	}
	if body.User.ID == "" {
		return nil, "", &Error{Message: "auth service returned no user"}
	}

	return &body.User, body.AccessToken, nil
}
