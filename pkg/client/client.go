// Package client is the Go counterpart of the browser session coordinator:
// a cookie-holding API client that keeps the current user cached and renews
// an expired session transparently, replaying the failed call exactly once.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

const requestTimeout = 10 * time.Second

// ErrSessionExpired is returned when a 401 could not be cured by the single
// silent refresh attempt. Local session state has been cleared.
var ErrSessionExpired = errors.New("session expired")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// User mirrors the public user fields the server serializes.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"is_email_verified"`
	LastLoginAt     time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Client talks to the auth API. Session continuity lives in the cookie jar;
// the cached user is a convenience mirror of the server's view.
type Client struct {
	baseURL *url.URL
	httpc   *http.Client

	mu   sync.RWMutex
	user *User
}

// New builds a Client for the given base URL, e.g. "https://api.example.com".
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: u,
		httpc: &http.Client{
			Jar:     jar,
			Timeout: requestTimeout,
		},
	}, nil
}

// CurrentUser returns the cached user, or nil when no session is held.
func (c *Client) CurrentUser() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

type sessionBody struct {
	User User `json:"user"`
}

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and caches the returned user.
func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	var out sessionBody
	if err := c.Do(ctx, http.MethodPost, "/auth/register", credentials{Name: name, Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	c.setUser(&out.User)
	return c.CurrentUser(), nil
}

// Login opens a session and caches the returned user.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out sessionBody
	if err := c.Do(ctx, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &out); err != nil {
		c.setUser(nil)
		return nil, err
	}
	c.setUser(&out.User)
	return c.CurrentUser(), nil
}

// Logout clears the local session state unconditionally; the server call is
// best effort.
func (c *Client) Logout(ctx context.Context) error {
	err := c.Do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.setUser(nil)
	return err
}

// Me re-derives the current user from the server, refreshing the cache.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	c.setUser(&out.User)
	return c.CurrentUser(), nil
}

// UpdatePassword changes the password; the rotated session rides the cookies.
func (c *Client) UpdatePassword(ctx context.Context, currentPassword, newPassword string) (*User, error) {
	body := map[string]string{
		"current_password": currentPassword,
		"new_password":     newPassword,
	}
	var out sessionBody
	if err := c.Do(ctx, http.MethodPut, "/auth/updatepassword", body, &out); err != nil {
		return nil, err
	}
	c.setUser(&out.User)
	return c.CurrentUser(), nil
}

// ForgotPassword starts the out-of-band reset flow.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.Do(ctx, http.MethodPost, "/auth/forgotpassword", map[string]string{"email": email}, nil)
}

// ResetPassword consumes a mailed reset token and opens a fresh session.
func (c *Client) ResetPassword(ctx context.Context, token, password string) (*User, error) {
	var out sessionBody
	if err := c.Do(ctx, http.MethodPut, "/auth/resetpassword/"+url.PathEscape(token), map[string]string{"password": password}, &out); err != nil {
		return nil, err
	}
	c.setUser(&out.User)
	return c.CurrentUser(), nil
}

// VerifyEmail consumes a mailed verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.Do(ctx, http.MethodGet, "/auth/verify-email/"+url.PathEscape(token), nil, nil)
}

// Do performs an API call with the silent-renewal policy: a 401 from a
// non-auth path triggers exactly one refresh and one replay of the original
// request with identical method, target and body. 401s from the auth surface
// itself are never retried, which prevents refresh loops.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	status, respBody, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && !isAuthPath(path) {
		// One silent rotation attempt, then one replay. The retry marker is
		// per call, so concurrent requests cannot cross-trigger each other.
		if refreshErr := c.refresh(ctx); refreshErr != nil {
			c.setUser(nil)
			return fmt.Errorf("%w: %s", ErrSessionExpired, apiMessage(status, respBody))
		}
		status, respBody, err = c.send(ctx, method, path, payload)
		if err != nil {
			return err
		}
	}

	if status < 200 || status > 299 {
		if status == http.StatusUnauthorized {
			c.setUser(nil)
		}
		return &APIError{StatusCode: status, Message: apiMessage(status, respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) refresh(ctx context.Context) error {
	status, body, err := c.send(ctx, http.MethodPost, "/auth/refresh-token", nil)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &APIError{StatusCode: status, Message: apiMessage(status, body)}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) setUser(u *User) {
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/auth/")
}

func apiMessage(status int, body []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
		return envelope.Error
	}
	return http.StatusText(status)
}
