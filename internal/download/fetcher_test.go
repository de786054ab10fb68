package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/nyaya/internal/model"
)

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.RateLimiting.RequestsPerSecond = 0
	cfg.RateLimiting.RespectRobotsTxt = false
	cfg.HTTP.Timeout = 5 * time.Second
	return cfg
}

func noSleep(t *testing.T) {
	t.Helper()
	orig := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	t.Cleanup(func() { fetchSleepFunc = orig })
}

func TestFetchWithRetry_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("ngrok-skip-browser-warning") != "true" {
			t.Errorf("missing bypass header")
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = fmt.Fprint(w, "%PDF-1.4 ok")
	}))
	defer server.Close()

	result, err := NewFetcher(testConfig()).FetchWithRetry(context.Background(), server.URL+"/1.pdf")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result.Body) != "%PDF-1.4 ok" {
		t.Errorf("Unexpected body: %s", result.Body)
	}
	if result.ContentType != "application/pdf" {
		t.Errorf("Unexpected content type: %s", result.ContentType)
	}
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "%PDF")
	}))
	defer server.Close()

	if _, err := NewFetcher(testConfig()).FetchWithRetry(context.Background(), server.URL); err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(testConfig()).FetchWithRetry(context.Background(), server.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 status error, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("404 should not be retried, got %d attempts", attempts.Load())
	}
}

func TestFetchWithRetry_AllRetriesExhausted(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := NewFetcher(testConfig()).FetchWithRetry(context.Background(), server.URL); err == nil {
		t.Fatal("Expected error after all retries exhausted")
	}
	if attempts.Load() != maxFetchAttempts {
		t.Errorf("Expected %d attempts, got %d", maxFetchAttempts, attempts.Load())
	}
}

func TestFetchWithRetry_429Retried(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = fmt.Fprint(w, "%PDF")
	}))
	defer server.Close()

	if _, err := NewFetcher(testConfig()).FetchWithRetry(context.Background(), server.URL); err != nil {
		t.Fatalf("Expected success after 429 retry, got %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts.Load())
	}
}

func TestFetch_SizeCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "0123456789")
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.HTTP.MaxBodyBytes = 5
	if _, err := NewFetcher(cfg).Fetch(context.Background(), server.URL); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
}

func TestFetch_RedirectCap(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	if _, err := NewFetcher(testConfig()).Fetch(context.Background(), server.URL+"/a"); err == nil {
		t.Error("Expected an error after too many redirects")
	}
}

func TestFetch_RobotsDisallowed(t *testing.T) {
	var pdfHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /sealed/\n")
			return
		}
		pdfHits.Add(1)
		_, _ = fmt.Fprint(w, "%PDF")
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.RateLimiting.RespectRobotsTxt = true
	f := NewFetcher(cfg)

	if _, err := f.Fetch(context.Background(), server.URL+"/sealed/1.pdf"); !errors.Is(err, ErrDisallowed) {
		t.Errorf("Expected ErrDisallowed, got %v", err)
	}
	if _, err := f.Fetch(context.Background(), server.URL+"/public/1.pdf"); err != nil {
		t.Errorf("Expected allowed fetch, got %v", err)
	}
	if pdfHits.Load() != 1 {
		t.Errorf("Expected only the allowed document to be requested, got %d", pdfHits.Load())
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"503", &StatusError{Code: 503}, true},
		{"500", &StatusError{Code: 500}, true},
		{"429", &StatusError{Code: 429}, true},
		{"404", &StatusError{Code: 404}, false},
		{"403", &StatusError{Code: 403}, false},
		{"transport", fmt.Errorf("fetch: %w", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}), true},
		{"cancelled", fmt.Errorf("fetch: %w", &url.Error{Op: "Get", URL: "http://x", Err: context.Canceled}), false},
		{"too large", ErrTooLarge, false},
		{"robots", ErrDisallowed, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableFetchError(tt.err); got != tt.retryable {
				t.Errorf("isRetryableFetchError(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestResolveURL(t *testing.T) {
	got, err := ResolveURL("https://api.example.in", "/pdf/hc/1.pdf")
	if err != nil || got != "https://api.example.in/pdf/hc/1.pdf" {
		t.Errorf("relative link resolved to %q (%v)", got, err)
	}
	got, err = ResolveURL("https://api.example.in", "https://hc.nic.in/orders/9.pdf")
	if err != nil || got != "https://hc.nic.in/orders/9.pdf" {
		t.Errorf("absolute link changed to %q (%v)", got, err)
	}
}

func TestBatchDownloader(t *testing.T) {
	noSleep(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pdf/missing.pdf" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = fmt.Fprintf(w, "%%PDF %s", r.URL.Path)
	}))
	defer server.Close()

	dir := t.TempDir()
	existing := filepath.Join(dir, "KLHC010000022020.pdf")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	judgments := []model.Judgment{
		{ID: 1, CNR: "KLHC010000012020", PDFLink: "/pdf/1.pdf"},
		{ID: 2, CNR: "KLHC010000022020", PDFLink: "/pdf/2.pdf"},
		{ID: 3, PDFLink: "/pdf/missing.pdf"},
		{ID: 4},
		{ID: 5, CNR: "SC/2021 77", PDFLink: server.URL + "/pdf/5.pdf"},
	}

	b := NewBatchDownloader(NewFetcher(testConfig()), 2, dir, server.URL, nil)
	results, err := b.Download(context.Background(), judgments)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(results) != len(judgments) {
		t.Fatalf("Expected %d results, got %d", len(judgments), len(results))
	}

	for i, r := range results {
		if r.Judgment.ID != judgments[i].ID {
			t.Errorf("result %d is for judgment %d", i, r.Judgment.ID)
		}
	}

	if results[0].Err != nil || results[0].Bytes == 0 {
		t.Errorf("judgment 1: %+v", results[0])
	}
	if !results[1].Skipped {
		t.Error("judgment 2 should be skipped, file exists")
	}
	if data, _ := os.ReadFile(existing); string(data) != "old" {
		t.Error("existing file was overwritten")
	}
	if results[2].Err == nil {
		t.Error("judgment 3 should fail with 404")
	}
	if results[3].Err == nil {
		t.Error("judgment 4 has no link and should fail")
	}
	if _, err := os.Stat(filepath.Join(dir, "SC_2021_77.pdf")); err != nil {
		t.Errorf("judgment 5 not saved under sanitized CNR: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "3.pdf")); err == nil {
		t.Error("failed download left a file behind")
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(model.Judgment{ID: 42}); got != "42.pdf" {
		t.Errorf("FileName without CNR = %q", got)
	}
	if got := FileName(model.Judgment{ID: 42, CNR: "DLHC01-001234/2022"}); got != "DLHC01-001234_2022.pdf" {
		t.Errorf("FileName with CNR = %q", got)
	}
}
