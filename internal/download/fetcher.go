// Package download fetches judgment PDFs from court hosts, honouring
// robots.txt and per-host rate limits.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ppiankov/nyaya/internal/model"
	"github.com/ppiankov/nyaya/internal/util"
	"github.com/ppiankov/nyaya/internal/worker"
	"go.uber.org/zap"
)

const (
	maxFetchAttempts = 3
	maxRedirects     = 3
)

// fetchSleepFunc is replaced in tests
var fetchSleepFunc = time.Sleep

var (
	// ErrDisallowed is returned when robots.txt forbids the download
	ErrDisallowed = errors.New("disallowed by robots.txt")
	// ErrTooLarge is returned when a document exceeds the size cap
	ErrTooLarge = errors.New("document exceeds size limit")
)

// StatusError is a non-2xx response from a document host
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Fetcher downloads documents
type Fetcher struct {
	httpClient   *http.Client
	userAgent    string
	maxBytes     int64
	bypassHeader string
	bypassValue  string
	limiter      *worker.Limiter
	robots       *util.RobotsChecker
	logger       *zap.Logger
}

// Option customizes a Fetcher
type Option func(*Fetcher)

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// WithLimiter shares a limiter, typically the one used by the API client
func WithLimiter(l *worker.Limiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// NewFetcher creates a Fetcher from the HTTP, API and rate limiting settings of cfg
func NewFetcher(cfg *model.Config, opts ...Option) *Fetcher {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	timeout := cfg.HTTP.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	client := &http.Client{
		Timeout:   timeout,
		Transport: util.NewTransport(cfg.HTTP),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	f := &Fetcher{
		httpClient:   client,
		userAgent:    cfg.HTTP.UserAgent,
		maxBytes:     cfg.HTTP.MaxBodyBytes,
		bypassHeader: cfg.API.BypassHeader,
		bypassValue:  cfg.API.BypassValue,
		limiter:      worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		logger:       zap.NewNop(),
	}
	if cfg.RateLimiting.RespectRobotsTxt {
		f.robots = util.NewRobotsChecker(client, cfg.HTTP.UserAgent, 10*time.Second)
	}
	if f.maxBytes <= 0 {
		f.maxBytes = 50_000_000
	}

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Result is a downloaded document
type Result struct {
	Body        []byte
	ContentType string
	FinalURL    string
}

// Fetch downloads rawURL once
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return nil, ErrDisallowed
		}
		if delay > 0 {
			if host, err := worker.Host(rawURL); err == nil {
				f.limiter.SetCrawlDelay(host, delay)
			}
		}
	}

	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/pdf,*/*;q=0.8")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if f.bypassHeader != "" {
		req.Header.Set(f.bypassHeader, f.bypassValue)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, ErrTooLarge
	}

	return &Result{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry retries Fetch on transient failures (5xx, 429, transport
// errors) with a linear backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*Result, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryableFetchError(err) || attempt == maxFetchAttempts || ctx.Err() != nil {
			break
		}

		backoff := time.Duration(attempt) * time.Second
		f.logger.Debug("retrying download",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		fetchSleepFunc(backoff)
	}
	return nil, lastErr
}

func isRetryableFetchError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// ResolveURL makes a possibly relative PDF link absolute against base
func ResolveURL(base, link string) (string, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse link: %w", err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base: %w", err)
	}
	return b.ResolveReference(ref).String(), nil
}
