// Package api is the single HTTP client wrapper for the legal-research backend.
//
// Every backend resource has one method on Client. Requests carry the JSON
// content type, the tunnel bypass header, a request id and, when the session
// is authenticated, a bearer token. A 401 on an authenticated call triggers
// one serialized token refresh followed by one retry.
package api

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

	"github.com/google/uuid"
	"github.com/ppiankov/nyaya/internal/cache"
	"github.com/ppiankov/nyaya/internal/model"
	"github.com/ppiankov/nyaya/internal/session"
	"github.com/ppiankov/nyaya/internal/util"
	"github.com/ppiankov/nyaya/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
)

// Client talks to the backend on behalf of one session
type Client struct {
	mu      sync.RWMutex
	baseURL string

	primaryURL   string
	fallbackURLs []string
	probeTimeout time.Duration
	probePath    string

	httpClient   *http.Client
	session      *session.Session
	limiter      *worker.Limiter
	cache        cache.Cache
	cacheTTL     time.Duration
	logger       *zap.Logger
	maxBodyBytes int64

	bypassHeader string
	bypassValue  string
	userAgent    string
	refreshSkew  time.Duration

	refreshGroup    singleflight.Group
	onLoginRequired func()
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithCache enables caching of reference data (acts, law mappings).
// ttl 0 keeps each entry for the store's own default.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// WithLimiter replaces the outgoing request limiter
func WithLimiter(l *worker.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithLoginRequired registers a hook run after a failed refresh cleared the session
func WithLoginRequired(fn func()) Option {
	return func(c *Client) { c.onLoginRequired = fn }
}

// NewClient creates a client for cfg.API.BaseURL using sess for credentials
func NewClient(cfg *model.Config, sess *session.Session, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if sess == nil {
		sess = session.New(nil)
	}

	base, err := normalizeBaseURL(cfg.API.BaseURL)
	if err != nil {
		return nil, err
	}

	var fallbacks []string
	for _, raw := range cfg.API.FallbackURLs {
		fb, err := normalizeBaseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("fallback url: %w", err)
		}
		fallbacks = append(fallbacks, fb)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		baseURL:      base,
		primaryURL:   base,
		fallbackURLs: fallbacks,
		probeTimeout: cfg.API.ProbeTimeout,
		probePath:    cfg.API.ProbePath,
		httpClient: &http.Client{
			Timeout:   cfg.HTTP.Timeout,
			Transport: util.NewTransport(cfg.HTTP),
			Jar:       jar,
		},
		session:      sess,
		limiter:      worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		logger:       zap.NewNop(),
		maxBodyBytes: cfg.HTTP.MaxBodyBytes,
		bypassHeader: cfg.API.BypassHeader,
		bypassValue:  cfg.API.BypassValue,
		userAgent:    cfg.HTTP.UserAgent,
		refreshSkew:  cfg.API.RefreshSkew,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.probeTimeout <= 0 {
		c.probeTimeout = 3 * time.Second
	}
	if c.probePath == "" {
		c.probePath = "/health"
	}
	if c.maxBodyBytes <= 0 {
		c.maxBodyBytes = 50_000_000
	}

	return c, nil
}

func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base url %q must be http or https", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// BaseURL returns the backend currently in use
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// Session returns the session the client authenticates with
func (c *Client) Session() *session.Session {
	return c.session
}

// request describes one API call
type request struct {
	method    string
	path      string
	query     url.Values
	body      any
	anonymous bool // Never attach a token nor refresh on 401
	cacheAs   string // Cache resource of a reference GET; empty is never cached
}

// response is a fully read HTTP response
type response struct {
	status    int
	body      []byte
	requestID string
}

// do executes req and decodes a 2xx JSON body into out (when out is non-nil)
func (c *Client) do(ctx context.Context, req request, out any) error {
	fullURL := c.BaseURL() + req.path
	if len(req.query) > 0 {
		fullURL += "?" + req.query.Encode()
	}

	useCache := req.cacheAs != "" && req.method == http.MethodGet && c.cache != nil
	var cacheKey cache.Key
	if useCache {
		cacheKey = cache.NewKey(req.cacheAs, req.method, fullURL)
		if cached, ok := c.cache.Get(cacheKey); ok {
			c.logger.Debug("cache hit", zap.String("path", req.path))
			return decodeInto(cached, out)
		}
	}

	token := ""
	if !req.anonymous {
		if c.session.Authenticated() && c.refreshSkew > 0 && c.session.ExpiresWithin(c.refreshSkew) {
			if err := c.refresh(ctx, c.session.AccessToken()); err != nil {
				if KindOf(err) != KindNetwork {
					return err
				}
				// Send with the current token; a 401 still gets one refresh below
				c.logger.Debug("early refresh failed, keeping access token", zap.Error(err))
			}
		}
		token = c.session.AccessToken()
	}

	resp, err := c.send(ctx, req, fullURL, token)
	if err != nil {
		return err
	}

	if resp.status == http.StatusUnauthorized && token != "" {
		if err := c.refresh(ctx, token); err != nil {
			return err
		}
		resp, err = c.send(ctx, req, fullURL, c.session.AccessToken())
		if err != nil {
			return err
		}
	}

	if resp.status < 200 || resp.status >= 300 {
		apiErr := errorFromResponse(resp.status, resp.body)
		apiErr.RequestID = resp.requestID
		return apiErr
	}

	if err := decodeInto(resp.body, out); err != nil {
		return err
	}

	if useCache {
		if err := c.cache.Set(cacheKey, resp.body, c.cacheTTL); err != nil {
			c.logger.Warn("cache store failed", zap.String("path", req.path), zap.Error(err))
		}
	}

	return nil
}

// send performs a single HTTP round trip
func (c *Client) send(ctx context.Context, req request, fullURL, token string) (*response, error) {
	if err := c.limiter.Wait(ctx, fullURL); err != nil {
		return nil, networkError(fmt.Errorf("rate limit wait: %w", err))
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.bypassHeader != "" {
		httpReq.Header.Set(c.bypassHeader, c.bypassValue)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, networkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return nil, networkError(fmt.Errorf("read body: %w", err))
	}

	c.logger.Debug("request",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID))

	return &response{status: resp.StatusCode, body: data, requestID: requestID}, nil
}

func decodeInto(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// refresh exchanges the refresh token for a new access token. Concurrent
// callers share a single in-flight refresh. staleToken is the access token
// the caller was rejected with; if the session already moved past it the
// refresh is skipped.
func (c *Client) refresh(ctx context.Context, staleToken string) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		if current := c.session.AccessToken(); current != "" && current != staleToken {
			return nil, nil
		}

		refreshToken := c.session.RefreshToken()
		if refreshToken == "" {
			return nil, c.loginRequired(nil)
		}

		var tokens model.Tokens
		err := c.do(context.WithoutCancel(ctx), request{
			method:    http.MethodPost,
			path:      "/auth/refresh",
			body:      map[string]string{"refresh_token": refreshToken},
			anonymous: true,
		}, &tokens)
		if err != nil {
			if KindOf(err) == KindNetwork {
				// The refresh token may still be valid; keep the session
				return nil, err
			}
			return nil, c.loginRequired(err)
		}
		if tokens.AccessToken == "" {
			return nil, c.loginRequired(errors.New("refresh response carried no access token"))
		}

		if err := c.session.Refresh(tokens); err != nil {
			return nil, err
		}
		c.logger.Debug("access token refreshed")
		return nil, nil
	})
	return err
}

// loginRequired clears every stored credential and signals the caller
func (c *Client) loginRequired(cause error) error {
	if err := c.session.Clear(); err != nil {
		c.logger.Warn("clear session failed", zap.Error(err))
	}
	if c.onLoginRequired != nil {
		c.onLoginRequired()
	}

	wrapped := ErrLoginRequired
	if cause != nil {
		wrapped = fmt.Errorf("%w: %w", ErrLoginRequired, cause)
	}
	return &Error{
		Kind:    KindAuth,
		Status:  http.StatusUnauthorized,
		Message: "Your session has expired. Please log in again.",
		Err:     wrapped,
	}
}

// InvalidateCache drops the cached responses of resource, or all of them
// when resource is empty, and reports how many were dropped
func (c *Client) InvalidateCache(resource string) (int, error) {
	if c.cache == nil {
		return 0, nil
	}
	return c.cache.Purge(resource)
}
