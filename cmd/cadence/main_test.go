package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/cadence/internal/config"
)

type fakeService struct {
	mu       sync.Mutex
	requests []*http.Request
	srv      *httptest.Server
}

func (f *fakeService) seen() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.requests...)
}

func newFakeService(t *testing.T, handler http.HandlerFunc) *fakeService {
	t.Helper()
	f := &fakeService{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Clone(context.Background()))
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

// writeConfig points a fresh config at apiURL with every file under a temp
// home directory.
func writeConfig(t *testing.T, apiURL string) (configPath, home string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvActiveEnv, "")
	t.Setenv(config.EnvConsoleLogger, "")
	t.Setenv(config.EnvAPIURL, "")

	configPath = filepath.Join(home, "config.toml")
	data := "api_url = \"" + apiURL + "\"\n" +
		"log_file = \"" + filepath.Join(home, "cadence.logs") + "\"\n" +
		"session_file = \"" + filepath.Join(home, "session.toml") + "\"\n"
	require.NoError(t, os.WriteFile(configPath, []byte(data), 0o600))
	return configPath, home
}

func execute(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTargetsList(t *testing.T) {
	svc := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"id":"t1","name":"ping","method":"GET","url":"https://example.com","timeout_seconds":30,"schedule_count":2}],"total":1,"page":1,"page_size":20,"total_pages":1}`))
	})
	cfg, _ := writeConfig(t, svc.srv.URL)

	out, err := execute(t, cfg, "targets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ping")
	assert.Contains(t, out, "https://example.com")
	assert.Contains(t, out, "page 1 of 1 (1 total)")

	reqs := svc.seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/targets", reqs[0].URL.Path)
	assert.Equal(t, "20", reqs[0].URL.Query().Get("page_size"))
}

func TestSchedulesCreate_WindowNeedsDuration(t *testing.T) {
	svc := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {})
	cfg, _ := writeConfig(t, svc.srv.URL)

	_, err := execute(t, cfg, "schedules", "create", "--target", "t1", "--type", "window", "--interval", "60")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duration_seconds is required for window schedules")
	assert.Empty(t, svc.seen())
}

func TestSchedulesPause_ReportsServiceStatus(t *testing.T) {
	svc := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"s1","status":"paused"}`))
	})
	cfg, _ := writeConfig(t, svc.srv.URL)

	out, err := execute(t, cfg, "schedules", "pause", "s1")
	require.NoError(t, err)
	assert.Equal(t, "schedule s1 is now paused\n", out)

	reqs := svc.seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/schedules/s1/pause", reqs[0].URL.Path)
}

func TestLoginThenRawGet(t *testing.T) {
	svc := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pong":true}`))
	})
	cfg, _ := writeConfig(t, svc.srv.URL)

	_, err := execute(t, cfg, "login", "--access-token", "a1", "--refresh-token", "r1")
	require.NoError(t, err)

	out, err := execute(t, cfg, "get", "/ping?verbose=1")
	require.NoError(t, err)
	assert.Equal(t, "{\"pong\":true}\n", out)

	reqs := svc.seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer a1", reqs[0].Header.Get("Authorization"))
	assert.Equal(t, "1", reqs[0].URL.Query().Get("verbose"))

	_, err = execute(t, cfg, "logout")
	require.NoError(t, err)
	_, err = execute(t, cfg, "get", "/ping")
	require.NoError(t, err)
	reqs = svc.seen()
	assert.Empty(t, reqs[len(reqs)-1].Header.Get("Authorization"))
}

func TestLogin_RequiresBothTokens(t *testing.T) {
	cfg, _ := writeConfig(t, "http://127.0.0.1:1")

	_, err := execute(t, cfg, "login", "--access-token", "a1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--refresh-token")
}

func TestLogin_RejectsNonPositiveLifetime(t *testing.T) {
	cfg, home := writeConfig(t, "http://127.0.0.1:1")

	_, err := execute(t, cfg, "login", "--access-token", "a1", "--refresh-token", "r1", "--expires-in", "0s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--expires-in")
	_, statErr := os.Stat(filepath.Join(home, "session.toml"))
	assert.True(t, os.IsNotExist(statErr), "session file should not be written")
}

func TestStatus_ApiErrorSurfacesMessage(t *testing.T) {
	svc := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"detail":"metrics offline"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"healthy","database":"healthy","scheduler":"healthy"}`))
	})
	cfg, _ := writeConfig(t, svc.srv.URL)

	_, err := execute(t, cfg, "status")
	require.Error(t, err)
	assert.Equal(t, "metrics offline", err.Error())
}

func TestLogs_FiltersByLevel(t *testing.T) {
	cfg, home := writeConfig(t, "http://127.0.0.1:1")
	lines := []string{
		`{"level":"DEBUG","msg":"noisy detail","date":"2026-01-02 10:00:00"}`,
		`{"level":"WARN","msg":"token store unreadable","date":"2026-01-02 10:00:01"}`,
	}
	require.NoError(t, os.WriteFile(filepath.Join(home, "cadence.logs"), []byte(strings.Join(lines, "\n")+"\n"), 0o600))

	out, err := execute(t, cfg, "logs", "--level", "INFO")
	require.NoError(t, err)
	assert.Contains(t, out, "token store unreadable")
	assert.NotContains(t, out, "noisy detail")
}
