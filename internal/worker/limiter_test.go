package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.burst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.burst)
	}

	l2 := NewLimiter(10, -1)
	if l2.burst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.burst)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("http://api.example.in/api/judgements") {
			t.Fatalf("request %d throttled with rate disabled", i)
		}
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://api.example.in/api/acts/central-acts"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "http://hcservices.ecourts.gov.in/x.pdf"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	url := "http://api.example.in"
	if !limiter.Allow(url) {
		t.Fatal("first request should pass")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, url); err == nil {
		t.Error("expected wait to fail once the context is done")
	}
}

func TestLimiter_PerHost(t *testing.T) {
	limiter := NewLimiter(1, 1)
	url := "http://api.example.in/api/bookmarks"

	if !limiter.Allow(url) {
		t.Errorf("first request should pass")
	}
	if limiter.Allow(url) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}
	if !limiter.Allow("http://other.example.in") {
		t.Errorf("expected allow for other host")
	}
}

func TestLimiter_SetCrawlDelay(t *testing.T) {
	limiter := NewLimiter(100, 10)
	host := "slow.court.example"

	limiter.SetCrawlDelay(host, 10*time.Second)

	if !limiter.Allow("http://" + host + "/a.pdf") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("https://SLOW.court.example:443/b.pdf") {
		t.Errorf("second request inside the crawl delay should fail")
	}
	if !limiter.Allow("http://fast.example") {
		t.Errorf("other host should pass")
	}
}

func TestLimiter_CrawlDelayNeverSpeedsUp(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	host := "court.example"

	limiter.SetCrawlDelay(host, time.Millisecond)

	if !limiter.Allow("http://" + host) {
		t.Fatal("first request should pass")
	}
	if limiter.Allow("http://" + host) {
		t.Errorf("a crawl delay looser than the configured rate must not raise it")
	}
}

func TestHost(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"http://localhost:8000/api/judgements?limit=10", "localhost:8000"},
		{"https://API.Example.in/api/acts", "api.example.in"},
		{"https://api.example.in:443/api/acts", "api.example.in"},
		{"http://api.example.in:80", "api.example.in"},
		{"http://api.example.in:443", "api.example.in:443"},
	}
	for _, tt := range tests {
		got, err := Host(tt.raw)
		if err != nil {
			t.Fatalf("Host(%q) failed: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("Host(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}

	if _, err := Host("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
	if _, err := Host("/api/judgements"); err == nil {
		t.Errorf("expected error for a URL without host")
	}
}
