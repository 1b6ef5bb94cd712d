package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/cadence/internal/logging"
)

type brokenStore struct{}

func (brokenStore) Save(Tokens) error           { return nil }
func (brokenStore) Load() (Tokens, bool, error) { return Tokens{}, false, errors.New("disk gone") }
func (brokenStore) Clear() error                { return nil }

func TestResolve_ServerSideBearerFromCookie(t *testing.T) {
	inbound := httptest.NewRequest(http.MethodGet, "/runs", nil)
	inbound.Header.Set("Cookie", "access_token=abc; refresh_token=r1")
	inbound.Header.Set("X-Forwarded-For", "10.0.0.1")
	inbound.Header.Set("X-Real-Ip", "10.0.0.2")
	inbound.Header.Set("User-Agent", "browser/1")

	logger, buf := logging.Buffer()
	r := &Resolver{Logger: logger}
	got := r.Resolve(inbound)

	assert.Equal(t, "Bearer abc", got.Get("Authorization"))
	assert.Equal(t, "access_token=abc; refresh_token=r1", got.Get("Cookie"))
	assert.Equal(t, "10.0.0.1", got.Get("X-Forwarded-For"))
	assert.Equal(t, "10.0.0.2", got.Get("X-Real-Ip"))
	assert.Equal(t, "browser/1", got.Get("User-Agent"))
	assert.Empty(t, buf.String())
}

func TestResolve_ServerSideWarnsWithoutAccessToken(t *testing.T) {
	inbound := httptest.NewRequest(http.MethodGet, "/runs", nil)
	inbound.Header.Set("Cookie", "theme=dark")

	logger, buf := logging.Buffer()
	got := (&Resolver{Logger: logger}).Resolve(inbound)

	assert.Empty(t, got.Get("Authorization"))
	assert.Equal(t, "theme=dark", got.Get("Cookie"))
	assert.Empty(t, got.Get("X-Forwarded-For"))
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "access token missing")
	assert.Contains(t, buf.String(), "[REDACTED]")
	assert.NotContains(t, buf.String(), "theme=dark")
}

func TestResolve_ServerSideNoCookieHeader(t *testing.T) {
	inbound := httptest.NewRequest(http.MethodGet, "/", nil)
	got := (&Resolver{Logger: logging.Discard()}).Resolve(inbound)
	assert.Empty(t, got.Get("Cookie"))
	assert.Empty(t, got.Get("Authorization"))
}

func TestResolve_LocalWithStoredTokens(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(Tokens{AccessToken: "a1", RefreshToken: "r1", ExpiresIn: time.Hour}))

	got := (&Resolver{Store: store, UserAgent: "cadence/test"}).Resolve(nil)
	assert.Equal(t, "Bearer a1", got.Get("Authorization"))
	assert.Equal(t, "cadence/test", got.Get("User-Agent"))

	defaulted := (&Resolver{Store: store}).Resolve(nil)
	assert.True(t, strings.HasPrefix(defaulted.Get("User-Agent"), "cadence/"))
}

func TestResolve_LocalWithoutTokens(t *testing.T) {
	store := NewMemoryStore()
	assert.Empty(t, (&Resolver{Store: store}).Resolve(nil))

	require.NoError(t, store.Save(Tokens{AccessToken: "a1", ExpiresIn: time.Hour}))
	assert.Empty(t, (&Resolver{Store: store}).Resolve(nil), "refresh token missing")

	assert.Empty(t, (&Resolver{}).Resolve(nil))

	logger, buf := logging.Buffer()
	assert.Empty(t, (&Resolver{Store: brokenStore{}, Logger: logger}).Resolve(nil))
	assert.Contains(t, buf.String(), "disk gone")
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.toml")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok, "missing file means no tokens")

	require.NoError(t, store.Save(Tokens{AccessToken: "a1", RefreshToken: "r1", ExpiresIn: time.Hour}))

	got, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a1", got.AccessToken)
	assert.Equal(t, "r1", got.RefreshToken)
	assert.InDelta(t, time.Hour.Seconds(), got.ExpiresIn.Seconds(), 2)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "strict")
}

func TestFileStore_ClearIsIdempotent(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "session.toml"))
	require.NoError(t, err)
	require.NoError(t, store.Save(Tokens{AccessToken: "a1", RefreshToken: "r1", ExpiresIn: time.Hour}))

	for i := 0; i < 2; i++ {
		require.NoError(t, store.Clear())
		_, ok, err := store.Load()
		require.NoError(t, err)
		assert.False(t, ok, "clear #%d", i+1)
	}
}

func TestFileStore_IgnoresExpiredCookies(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "session.toml"))
	require.NoError(t, err)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	require.NoError(t, store.Save(Tokens{AccessToken: "a1", RefreshToken: "r1", ExpiresIn: time.Minute}))

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o600))
	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, ok, err := store.Load()
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestCookies_SetClearAndRead(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := httptest.NewRecorder()
	SetCookies(rec, Tokens{AccessToken: "a1", RefreshToken: "r1", ExpiresIn: time.Hour}, now)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Equal(t, "/", c.Path)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
		assert.True(t, c.Expires.Equal(now.Add(time.Hour)))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	tokens, ok := FromRequest(req)
	require.True(t, ok)
	assert.Equal(t, "a1", tokens.AccessToken)
	assert.Equal(t, "r1", tokens.RefreshToken)

	cleared := httptest.NewRecorder()
	ClearCookies(cleared)
	for _, c := range cleared.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.Equal(t, -1, c.MaxAge)
	}

	_, ok = FromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
	_, ok = FromRequest(nil)
	assert.False(t, ok)
}
