package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ppiankov/nyaya/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	state, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, state, "missing file is not an error")

	want := &State{
		Tokens: model.Tokens{AccessToken: "a1", RefreshToken: "r1"},
		User:   &model.User{ID: 3, Email: "advocate@example.in"},
	}
	require.NoError(t, store.Save(want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice is fine")
	got, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSession_Lifecycle(t *testing.T) {
	store := NewMemoryStore()
	s := New(store)
	assert.False(t, s.Authenticated())

	require.NoError(t, s.Authenticate(model.Tokens{AccessToken: "a1", RefreshToken: "r1"}, &model.User{Email: "x@y.in"}))
	assert.True(t, s.Authenticated())

	// Server did not rotate the refresh token
	require.NoError(t, s.Refresh(model.Tokens{AccessToken: "a2"}))
	assert.Equal(t, "a2", s.AccessToken())
	assert.Equal(t, "r1", s.RefreshToken())

	// A second session rehydrates from the same store
	s2 := New(store)
	require.NoError(t, s2.Load())
	assert.Equal(t, "a2", s2.AccessToken())
	assert.Equal(t, "x@y.in", s2.User().Email)

	require.NoError(t, s.Clear())
	assert.False(t, s.Authenticated())
	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, persisted)
}

func TestSession_Dispose(t *testing.T) {
	store := NewMemoryStore()
	s := New(store)
	require.NoError(t, s.Authenticate(model.Tokens{AccessToken: "a1"}, nil))

	s.Dispose()
	assert.False(t, s.Authenticated())
	assert.ErrorIs(t, s.Refresh(model.Tokens{AccessToken: "a2"}), ErrDisposed)

	persisted, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, "a1", persisted.Tokens.AccessToken)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(10 * time.Second).Truncate(time.Second)
	got, ok := TokenExpiry(signedToken(t, exp))
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = TokenExpiry("opaque-token")
	assert.False(t, ok)
	_, ok = TokenExpiry("")
	assert.False(t, ok)
}

func TestSession_ExpiresWithin(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Authenticate(model.Tokens{AccessToken: signedToken(t, time.Now().Add(10*time.Second))}, nil))
	assert.True(t, s.ExpiresWithin(30*time.Second))
	assert.False(t, s.ExpiresWithin(time.Second))

	require.NoError(t, s.Authenticate(model.Tokens{AccessToken: "opaque"}, nil))
	assert.False(t, s.ExpiresWithin(time.Hour), "unknown expiry never forces a refresh")
}
