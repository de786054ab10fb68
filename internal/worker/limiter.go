package worker

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces requests per host. The backend and each court PDF host get
// their own token bucket; a robots.txt crawl delay can slow one host down.
type Limiter struct {
	rps   rate.Limit
	burst int

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewLimiter gives every host requestsPerSecond with the given burst.
// requestsPerSecond <= 0 leaves hosts unthrottled.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	rps := rate.Inf
	if requestsPerSecond > 0 {
		rps = rate.Limit(requestsPerSecond)
	}
	return &Limiter{rps: rps, burst: burst, hosts: make(map[string]*rate.Limiter)}
}

// Wait blocks until rawURL's host may be contacted or ctx ends
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := Host(rawURL)
	if err != nil {
		return err
	}
	return l.bucket(host).Wait(ctx)
}

// Allow takes a token for rawURL's host if one is free
func (l *Limiter) Allow(rawURL string) bool {
	host, err := Host(rawURL)
	if err != nil {
		return false
	}
	return l.bucket(host).Allow()
}

// SetCrawlDelay keeps requests to host at least delay apart. It only ever
// slows a host: a delay looser than the configured rate is ignored.
func (l *Limiter) SetCrawlDelay(host string, delay time.Duration) {
	if delay <= 0 {
		return
	}
	limit := rate.Every(delay)
	if limit >= l.rps {
		return
	}

	b := l.bucket(normalizeHost(host, ""))
	b.SetLimit(limit)
	b.SetBurst(1)
}

func (l *Limiter) bucket(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.hosts[host]
	if !ok {
		b = rate.NewLimiter(l.rps, l.burst)
		l.hosts[host] = b
	}
	return b
}

// Host is the limiter key of rawURL: the lower-cased host, with the port
// only when it is not the scheme's default
func Host(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return normalizeHost(u.Host, u.Scheme), nil
}

func normalizeHost(host, scheme string) string {
	host = strings.ToLower(host)
	name, port, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") || (scheme == "" && (port == "443" || port == "80")) {
		return name
	}
	return host
}
