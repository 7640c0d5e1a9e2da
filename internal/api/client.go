// Package api talks to the welfare backend's REST interface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"welfaredesk/internal/model"
	"welfaredesk/internal/session"
)

const (
	defaultTimeout = 15 * time.Second
	// Access tokens this close to expiry are refreshed before sending.
	refreshLeeway = 10 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables limiting
	Store      session.Store
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// Client sends authenticated requests and keeps the session fresh.
// It is safe for concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	store   session.Store
	logger  *slog.Logger
	limiter *rate.Limiter
	now     func() time.Time

	refreshes singleflight.Group

	mu      sync.RWMutex
	current *session.Session
}

// NewClient validates the base URL and restores any stored session.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", opts.BaseURL)
	}

	c := &Client{
		base:    base,
		http:    opts.HTTPClient,
		timeout: opts.Timeout,
		store:   opts.Store,
		logger:  opts.Logger,
		now:     time.Now,
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.store == nil {
		c.store = session.NewMemoryStore()
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	s, err := c.store.Load()
	if err != nil {
		c.logger.Warn("failed to load stored session", "error", err)
	}
	c.current = s
	return c, nil
}

// Timeout is the per-request deadline callers should apply.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Session returns a copy of the current session, or nil when signed out.
func (c *Client) Session() *session.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	s := *c.current
	return &s
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.Access
}

type loginResponse struct {
	Access  string     `json:"access"`
	Refresh string     `json:"refresh"`
	User    model.User `json:"user"`
}

// Login exchanges credentials for tokens and persists the session.
func (c *Client) Login(ctx context.Context, username, password string) (*session.Session, error) {
	body := map[string]string{"username": username, "password": password}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "auth/login/", nil, body, &resp, false); err != nil {
		return nil, err
	}
	if resp.Access == "" {
		return nil, &Error{Status: http.StatusUnauthorized, Message: "Login failed: no token received"}
	}

	user := resp.User
	if user.Role == "" {
		user.Role = roleClaim(resp.Access)
	}
	if user.Username == "" {
		user.Username = username
	}

	s := session.New(resp.Access, resp.Refresh, user, c.now())
	if err := c.store.Save(s); err != nil {
		c.logger.Warn("failed to persist session", "error", err)
	}
	c.mu.Lock()
	c.current = &s
	c.mu.Unlock()

	c.logger.Info("signed in", "user", user.Username, "role", user.Role)
	return c.Session(), nil
}

// Logout forgets the session locally.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Do sends an authenticated request. body may be nil, a Payload (JSON or
// multipart), or any JSON-encodable value; out, when non-nil, receives the
// decoded 2xx response.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.do(ctx, method, path, query, body, out, true)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, auth bool) error {
	enc, err := encodeBody(body)
	if err != nil {
		return err
	}

	token := ""
	if auth {
		token = c.accessToken()
		if token == "" {
			return ErrSessionExpired
		}
		if c.expiringSoon(token) {
			if token, err = c.refresh(ctx, token); err != nil {
				return err
			}
		}
	}

	status, data, err := c.send(ctx, method, path, query, enc, token)
	if err != nil {
		return err
	}

	if auth && needsRefresh(status, data) {
		if token, err = c.refresh(ctx, token); err != nil {
			return err
		}
		status, data, err = c.send(ctx, method, path, query, enc, token)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			c.expire("replayed request still unauthorized")
			return ErrSessionExpired
		}
	}

	return c.decode(method, path, status, data, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, enc *encodedBody, token string) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, &TransportError{Err: err}
		}
	}

	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	// JoinPath drops the trailing slash the backend routes expect.
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), enc.reader())
	if err != nil {
		return 0, nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if enc != nil {
		req.Header.Set("Content-Type", enc.contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request failed", "method", method, "path", path, "error", err)
		return 0, nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("failed to read response", "method", method, "path", path, "error", err)
		return 0, nil, &TransportError{Err: err}
	}
	return resp.StatusCode, data, nil
}

func (c *Client) decode(method, path string, status int, data []byte, out any) error {
	if status >= 200 && status < 300 {
		if out == nil || status == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			c.logger.Error("failed to decode response", "method", method, "path", path, "error", err)
			return fmt.Errorf("JSON decode error: %w", err)
		}
		return nil
	}

	payload := decodePayload(data)
	apiErr := &Error{Status: status, Payload: payload, Message: FormatPayload(payload)}
	if status >= 500 {
		c.logger.Error("server error", "method", method, "path", path, "status", status, "body", truncate(string(data), 512))
	}
	return apiErr
}

func decodePayload(data []byte) any {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err == nil {
		return v
	}
	return string(trimmed)
}

// needsRefresh reports whether a response means the access token was
// rejected.
func needsRefresh(status int, data []byte) bool {
	if status == http.StatusUnauthorized {
		return true
	}
	if status != http.StatusForbidden {
		return false
	}
	var body struct {
		Code string `json:"code"`
	}
	return json.Unmarshal(data, &body) == nil && body.Code == "token_not_valid"
}

// refresh obtains a new access token. stale is the token the caller sent;
// if it has already been replaced the current token is returned without
// another round trip. Concurrent callers share one refresh request.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	if current := c.accessToken(); current != "" && current != stale {
		return current, nil
	}

	v, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		if current := c.accessToken(); current != "" && current != stale {
			return current, nil
		}
		return c.refreshNow(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (c *Client) refreshNow(ctx context.Context) (string, error) {
	c.mu.RLock()
	var refreshToken string
	if c.current != nil {
		refreshToken = c.current.Refresh
	}
	c.mu.RUnlock()
	if refreshToken == "" {
		c.expire("no refresh token")
		return "", ErrSessionExpired
	}

	// Waiters share this request, so one caller's cancellation must not
	// fail everyone.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	enc, err := encodeBody(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", err
	}
	status, data, err := c.send(ctx, http.MethodPost, "auth/refresh/", nil, enc, "")
	if err != nil {
		c.expire("refresh transport error")
		return "", ErrSessionExpired
	}
	var resp refreshResponse
	if err := c.decode(http.MethodPost, "auth/refresh/", status, data, &resp); err != nil || resp.Access == "" {
		c.expire(fmt.Sprintf("refresh rejected with status %d", status))
		return "", ErrSessionExpired
	}

	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return "", ErrSessionExpired
	}
	next := session.New(resp.Access, c.current.Refresh, c.current.User, c.now())
	if resp.Refresh != "" {
		next.Refresh = resp.Refresh
	}
	c.current = &next
	c.mu.Unlock()

	if err := c.store.Save(next); err != nil {
		c.logger.Warn("failed to persist refreshed session", "error", err)
	}
	c.logger.Info("access token refreshed")
	return next.Access, nil
}

func (c *Client) expire(reason string) {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("failed to clear session", "error", err)
	}
	c.logger.Warn("session expired", "reason", reason)
}

// expiringSoon reads the token's exp claim without verifying it. Opaque
// tokens are never considered expiring.
func (c *Client) expiringSoon(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return c.now().Add(refreshLeeway).After(exp.Time)
}

func roleClaim(token string) model.Role {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	if role, ok := claims["role"].(string); ok {
		return model.Role(role)
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
