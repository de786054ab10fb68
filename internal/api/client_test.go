package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ppiankov/nyaya/internal/api/apitest"
	"github.com/ppiankov/nyaya/internal/cache"
	"github.com/ppiankov/nyaya/internal/model"
	"github.com/ppiankov/nyaya/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *apitest.Server, opts ...Option) *Client {
	t.Helper()

	cfg := model.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	cfg.RateLimiting.RequestsPerSecond = 0

	sess := session.New(session.NewMemoryStore())
	require.NoError(t, sess.Authenticate(srv.Tokens(), nil))

	c, err := NewClient(cfg, sess, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.API.BaseURL = "ftp://example.com"

	_, err := NewClient(cfg, nil)
	assert.Error(t, err)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.API.BaseURL = "https://api.example.in/"

	c, err := NewClient(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.in", c.BaseURL())
}

func TestClient_RequestHeaders(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)

	_, err := c.GetCentralActs(context.Background(), ActQuery{Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, "application/json", srv.LastHeader("Content-Type"))
	assert.Equal(t, "true", srv.LastHeader("ngrok-skip-browser-warning"))
	assert.Equal(t, "Bearer "+srv.Tokens().AccessToken, srv.LastHeader("Authorization"))
	assert.Equal(t, "nyaya/0.3", srv.LastHeader("User-Agent"))

	_, err = uuid.Parse(srv.LastHeader("X-Request-ID"))
	assert.NoError(t, err, "request id should be a uuid")
}

func TestClient_AnonymousRequestCarriesNoToken(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)

	user, err := c.Login(context.Background(), apitest.Email, apitest.Password)
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, 1, srv.Requests("POST /auth/login"))
	assert.Empty(t, srv.LastHeader("Authorization"))
	assert.Equal(t, srv.Tokens().AccessToken, c.Session().AccessToken())
	assert.Equal(t, apitest.Email, c.Session().User().Email)
}

func TestClient_LoginWrongPassword(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)
	before := c.Session().AccessToken()

	_, err := c.Login(context.Background(), apitest.Email, "wrong")
	require.Error(t, err)

	assert.Equal(t, KindAuth, KindOf(err))
	assert.Equal(t, "Incorrect email or password", err.Error())
	assert.Zero(t, srv.RefreshCalls(), "anonymous calls never refresh")
	assert.Equal(t, before, c.Session().AccessToken())
}

func TestClient_SignupValidationMessage(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)

	_, err := c.Signup(context.Background(), model.SignupRequest{Name: "A", Email: "a@example.in", Password: "short"})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindValidation, apiErr.Kind)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "password must be at least 8 characters", apiErr.Message)
}

func TestClient_Signup(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)

	user, err := c.Signup(context.Background(), model.SignupRequest{
		Name: "New Clerk", Email: "clerk@example.in", Password: "longenough", Profession: "student",
	})
	require.NoError(t, err)
	assert.Equal(t, "clerk@example.in", user.Email)
	assert.Equal(t, srv.Tokens().AccessToken, c.Session().AccessToken())
}

func TestClient_RefreshOn401ThenRetry(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)
	srv.ExpireAccessToken()

	page, err := c.GetJudgements(context.Background(), JudgementQuery{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, page.Data, 5)

	assert.Equal(t, 1, srv.RefreshCalls())
	assert.Equal(t, 2, srv.Requests("GET /api/judgements"))
	assert.Equal(t, srv.Tokens().AccessToken, c.Session().AccessToken())
}

func TestClient_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)
	srv.ExpireAccessToken()
	srv.SetRefreshDelay(100 * time.Millisecond)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.GetJudgements(context.Background(), JudgementQuery{Limit: 2})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, srv.RefreshCalls())
}

func TestClient_FailedRefreshClearsSession(t *testing.T) {
	srv := apitest.NewServer(t)

	var hookCalls atomic.Int32
	store := session.NewMemoryStore()
	cfg := model.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	cfg.RateLimiting.RequestsPerSecond = 0
	sess := session.New(store)
	require.NoError(t, sess.Authenticate(srv.Tokens(), &model.User{ID: 1}))

	c, err := NewClient(cfg, sess, WithLoginRequired(func() { hookCalls.Add(1) }))
	require.NoError(t, err)

	srv.ExpireAccessToken()
	srv.SetFailRefresh(true)

	_, err = c.GetJudgements(context.Background(), JudgementQuery{})
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrLoginRequired))
	assert.Equal(t, KindAuth, KindOf(err))
	assert.False(t, sess.Authenticated())
	assert.Nil(t, sess.User())
	assert.Equal(t, int32(1), hookCalls.Load())

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)

	// No retry after a failed refresh
	assert.Equal(t, 1, srv.Requests("GET /api/judgements"))
}

func TestClient_NoTokenNoRefresh(t *testing.T) {
	srv := apitest.NewServer(t)

	cfg := model.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	c, err := NewClient(cfg, session.New(nil))
	require.NoError(t, err)

	_, err = c.GetJudgements(context.Background(), JudgementQuery{})
	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))
	assert.False(t, errors.Is(err, ErrLoginRequired))
	assert.Zero(t, srv.RefreshCalls())
}

func TestClient_ProactiveRefreshBeforeExpiry(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)

	soon, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Second)),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	require.NoError(t, c.Session().Authenticate(model.Tokens{
		AccessToken:  soon,
		RefreshToken: srv.Tokens().RefreshToken,
	}, nil))

	_, err = c.GetCentralActs(context.Background(), ActQuery{Limit: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, srv.RefreshCalls())
	assert.Equal(t, 1, srv.Requests("GET /api/acts/central-acts"), "no 401 round trip")
}

func TestClient_EarlyRefreshNetworkFailureKeepsToken(t *testing.T) {
	soon, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Second)),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	var refreshes, acts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	})
	mux.HandleFunc("GET /api/acts/central-acts", func(w http.ResponseWriter, r *http.Request) {
		acts.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+soon {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(model.Page[model.Act]{Data: []model.Act{{ID: 1}}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := model.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	cfg.RateLimiting.RequestsPerSecond = 0
	sess := session.New(session.NewMemoryStore())
	require.NoError(t, sess.Authenticate(model.Tokens{AccessToken: soon, RefreshToken: "refresh"}, nil))
	c, err := NewClient(cfg, sess)
	require.NoError(t, err)

	page, err := c.GetCentralActs(context.Background(), ActQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(1), acts.Load())
	assert.True(t, c.Session().Authenticated(), "session survives an unreachable refresh")
	assert.Equal(t, soon, c.Session().AccessToken())
}

func TestClient_Logout(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, 1, srv.Requests("POST /auth/logout"))
	assert.False(t, c.Session().Authenticated())
}

func TestClient_MeAndSessions(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	user, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, apitest.Email, user.Email)
	assert.Equal(t, user, c.Session().User())

	sessions, err := c.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Current)

	require.NoError(t, c.RevokeSession(ctx, sessions[0].ID))
	assert.Equal(t, 1, srv.Requests("DELETE /auth/sessions/sess-1"))
}

func TestClient_CachesReferenceData(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv, WithCache(cache.NewMemoryCache(time.Minute, time.Minute), time.Minute))
	ctx := context.Background()

	first, err := c.GetCentralActs(ctx, ActQuery{Limit: 5})
	require.NoError(t, err)
	second, err := c.GetCentralActs(ctx, ActQuery{Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, srv.Requests("GET /api/acts/central-acts"))

	// Different query, different entry
	_, err = c.GetCentralActs(ctx, ActQuery{Limit: 5, Offset: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Requests("GET /api/acts/central-acts"))

	// Purging another resource leaves acts cached
	n, err := c.InvalidateCache(cache.ResourceLawMappings)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = c.GetCentralActs(ctx, ActQuery{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Requests("GET /api/acts/central-acts"))

	n, err = c.InvalidateCache(cache.ResourceCentralActs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = c.GetCentralActs(ctx, ActQuery{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, srv.Requests("GET /api/acts/central-acts"))
}

func TestClient_DoesNotCacheJudgements(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv, WithCache(cache.NewMemoryCache(time.Minute, time.Minute), time.Minute))
	ctx := context.Background()

	for range 2 {
		_, err := c.GetJudgements(ctx, JudgementQuery{Limit: 5})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, srv.Requests("GET /api/judgements"))
}

func TestClient_NetworkError(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.GetJudgements(context.Background(), JudgementQuery{})
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Network error. Check your connection and try again.", apiErr.UserMessage())
}
