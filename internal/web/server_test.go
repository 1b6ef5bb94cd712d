package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/cadence/internal/auth"
	"github.com/five82/cadence/internal/logging"
	"github.com/five82/cadence/internal/scheduler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// upstream records what the scheduling service received.
type upstream struct {
	mu       sync.Mutex
	requests []recorded
}

type recorded struct {
	method string
	path   string
	query  url.Values
	auth   string
	body   map[string]any
}

func (u *upstream) last() recorded {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.requests) == 0 {
		return recorded{}
	}
	return u.requests[len(u.requests)-1]
}

func (u *upstream) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.requests)
}

func newHarness(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*gin.Engine, *upstream) {
	t.Helper()
	rec := &upstream{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := recorded{method: r.Method, path: r.URL.Path, query: r.URL.Query(), auth: r.Header.Get("Authorization")}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &entry.body)
		}
		rec.mu.Lock()
		rec.requests = append(rec.requests, entry)
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	factory, err := scheduler.NewFactory(scheduler.FactoryConfig{
		BaseURL:    srv.URL,
		Resolver:   &auth.Resolver{Store: auth.NewMemoryStore()},
		Logger:     logging.Discard(),
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	server := New(Options{Factory: factory, Logger: logging.Discard(), Gatherer: prometheus.NewRegistry()})
	return server.Router(), rec
}

func serve(router *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHealthz(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	w, body := serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 0, rec.count())
}

func TestDashboard_ForwardsSessionCookie(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"targets_count":3}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "tok"})
	w, body := serve(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["error"])
	metrics, ok := body["metrics"].(map[string]any)
	require.True(t, ok, "metrics = %v", body["metrics"])
	assert.EqualValues(t, 3, metrics["targets_count"])
	assert.Equal(t, "/metrics", rec.last().path)
	assert.Equal(t, "Bearer tok", rec.last().auth)
}

func TestListTargets_DefaultsAndFailureEnvelope(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"database unavailable"}`))
	})

	w, body := serve(router, httptest.NewRequest(http.MethodGet, "/api/targets", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "database unavailable", body["error"])

	targets, ok := body["targets"].(map[string]any)
	require.True(t, ok)
	assert.Empty(t, targets["items"])
	assert.EqualValues(t, 20, targets["page_size"])

	assert.Equal(t, "1", rec.last().query.Get("page"))
	assert.Equal(t, "20", rec.last().query.Get("page_size"))
}

func TestListSchedules_LoadsTargetsAlongside(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/schedules":
			_, _ = w.Write([]byte(`{"items":[{"id":"s1","status":"paused"}],"total":1,"page":1,"page_size":20,"total_pages":1}`))
		case "/targets":
			_, _ = w.Write([]byte(`{"items":[{"id":"t1","name":"ping"}],"total":1,"page":1,"page_size":100,"total_pages":1}`))
		}
	})

	w, body := serve(router, httptest.NewRequest(http.MethodGet, "/api/schedules?status=paused", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["error"])
	assert.Len(t, body["schedules"].(map[string]any)["items"], 1)
	assert.Len(t, body["targets"].(map[string]any)["items"], 1)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.requests, 2)
	for _, r := range rec.requests {
		switch r.path {
		case "/schedules":
			assert.Equal(t, "paused", r.query.Get("status"))
		case "/targets":
			assert.Equal(t, "100", r.query.Get("page_size"))
		default:
			t.Fatalf("unexpected upstream path %q", r.path)
		}
	}
}

func TestListSchedules_EitherFailureEmptiesBoth(t *testing.T) {
	router, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/targets" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"s1"}],"total":1,"page":1,"page_size":20,"total_pages":1}`))
	})

	_, body := serve(router, httptest.NewRequest(http.MethodGet, "/api/schedules", nil))
	assert.NotNil(t, body["error"])
	assert.Empty(t, body["schedules"].(map[string]any)["items"])
	assert.Empty(t, body["targets"].(map[string]any)["items"])
}

func TestListRuns_FiltersAndDefaultPageSize(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[],"total":0,"page":1,"page_size":10,"total_pages":0}`))
	})

	w, body := serve(router, httptest.NewRequest(http.MethodGet, "/api/runs?status=failed&error_type=timeout&schedule_id=s9", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["error"])

	q := rec.last().query
	assert.Equal(t, "10", q.Get("page_size"))
	assert.Equal(t, "failed", q.Get("status"))
	assert.Equal(t, "timeout", q.Get("error_type"))
	assert.Equal(t, "s9", q.Get("schedule_id"))
}

func TestTargetAction_CreateDefaultsAndIgnoresBadHeaders(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"t1"}`))
	})

	w, body := serve(router, postForm("/api/targets", url.Values{
		"intent":  {"create"},
		"name":    {"ping"},
		"url":     {"https://example.com/hook"},
		"method":  {"POST"},
		"headers": {"{not json"},
	}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Target created successfully", body["message"])

	sent := rec.last()
	assert.Equal(t, http.MethodPost, sent.method)
	assert.EqualValues(t, 30, sent.body["timeout_seconds"])
	assert.NotContains(t, sent.body, "headers")
	assert.NotContains(t, sent.body, "body")
	assert.NotContains(t, sent.body, "description")
}

func TestTargetAction_InvalidPayloadNeverSent(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	_, body := serve(router, postForm("/api/targets", url.Values{
		"intent": {"create"},
		"name":   {"ping"},
		"method": {"GET"},
	}))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "url is required")
	assert.Equal(t, 0, rec.count())
}

func TestTargetAction_UpdateAndDelete(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(`{"id":"t1"}`))
	})

	_, body := serve(router, postForm("/api/targets", url.Values{
		"intent":          {"update"},
		"id":              {"t1"},
		"name":            {"ping"},
		"url":             {"https://example.com"},
		"method":          {"GET"},
		"timeout_seconds": {"12"},
		"headers":         {`{"X-Key":"v"}`},
	}))
	assert.Equal(t, "Target updated successfully", body["message"])
	assert.Equal(t, http.MethodPut, rec.last().method)
	assert.Equal(t, "/targets/t1", rec.last().path)
	assert.EqualValues(t, 12, rec.last().body["timeout_seconds"])
	assert.Equal(t, map[string]any{"X-Key": "v"}, rec.last().body["headers"])

	_, body = serve(router, postForm("/api/targets", url.Values{"intent": {"delete"}, "id": {"t1"}}))
	assert.Equal(t, "Target deleted successfully", body["message"])
	assert.Equal(t, http.MethodDelete, rec.last().method)
}

func TestTargetAction_UpdateOmitsBlankFields(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"t1"}`))
	})

	_, body := serve(router, postForm("/api/targets", url.Values{
		"intent":      {"update"},
		"id":          {"t1"},
		"description": {"nightly ping"},
	}))
	assert.Equal(t, true, body["success"], "message = %v", body["message"])
	assert.Equal(t, "Target updated successfully", body["message"])

	sent := rec.last()
	assert.Equal(t, http.MethodPut, sent.method)
	assert.Equal(t, "nightly ping", sent.body["description"])
	assert.NotContains(t, sent.body, "name")
	assert.NotContains(t, sent.body, "url")
	assert.NotContains(t, sent.body, "method")
}

func TestScheduleAction_WindowWithoutDurationRejected(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	_, body := serve(router, postForm("/api/schedules", url.Values{
		"intent":           {"create"},
		"target_id":        {"t1"},
		"schedule_type":    {"window"},
		"interval_seconds": {"60"},
	}))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "duration_seconds is required for window schedules")
	assert.Equal(t, 0, rec.count())
}

func TestScheduleAction_WindowUnparsableDurationRejected(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	for _, raw := range []string{"abc", "12s", " "} {
		_, body := serve(router, postForm("/api/schedules", url.Values{
			"intent":           {"create"},
			"target_id":        {"t1"},
			"schedule_type":    {"window"},
			"interval_seconds": {"60"},
			"duration_seconds": {raw},
		}))
		assert.Equal(t, false, body["success"], "duration %q", raw)
		assert.Contains(t, body["message"], "duration_seconds is required for window schedules", "duration %q", raw)
	}
	assert.Equal(t, 0, rec.count())
}

func TestScheduleAction_WindowSendsParsedDuration(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"s1","status":"active"}`))
	})

	_, body := serve(router, postForm("/api/schedules", url.Values{
		"intent":           {"create"},
		"target_id":        {"t1"},
		"schedule_type":    {"window"},
		"interval_seconds": {"60"},
		"duration_seconds": {"600"},
	}))
	assert.Equal(t, "Schedule created", body["message"])
	assert.EqualValues(t, 600, rec.last().body["duration_seconds"])
}

func TestScheduleAction_IntervalDropsDuration(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"s1","status":"active"}`))
	})

	_, body := serve(router, postForm("/api/schedules", url.Values{
		"intent":           {"create"},
		"target_id":        {"t1"},
		"schedule_type":    {"interval"},
		"interval_seconds": {"60"},
		"duration_seconds": {"600"},
	}))
	assert.Equal(t, "Schedule created", body["message"])
	assert.NotContains(t, rec.last().body, "duration_seconds")
	assert.EqualValues(t, 60, rec.last().body["interval_seconds"])
}

func TestScheduleAction_Transitions(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(`{"id":"s1","status":"paused"}`))
	})

	tests := []struct {
		intent  string
		message string
		method  string
		path    string
	}{
		{"pause", "Schedule paused", http.MethodPost, "/schedules/s1/pause"},
		{"resume", "Schedule resumed", http.MethodPost, "/schedules/s1/resume"},
		{"delete", "Schedule deleted", http.MethodDelete, "/schedules/s1"},
	}
	for _, tt := range tests {
		t.Run(tt.intent, func(t *testing.T) {
			_, body := serve(router, postForm("/api/schedules", url.Values{"intent": {tt.intent}, "id": {"s1"}}))
			assert.Equal(t, true, body["success"])
			assert.Equal(t, tt.message, body["message"])
			assert.Equal(t, tt.method, rec.last().method)
			assert.Equal(t, tt.path, rec.last().path)
		})
	}
}

func TestUnknownIntent(t *testing.T) {
	router, rec := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	for _, path := range []string{"/api/targets", "/api/schedules"} {
		_, body := serve(router, postForm(path, url.Values{"intent": {"archive"}}))
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Unknown action", body["message"])
	}
	assert.Equal(t, 0, rec.count())
}

func TestSessionCookies(t *testing.T) {
	router, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodPost, "/auth/session",
		strings.NewReader(`{"access_token":"a1","refresh_token":"r1","expires_in":3600}`))
	req.Header.Set("Content-Type", "application/json")
	w, body := serve(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	cookies := map[string]string{}
	for _, c := range w.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	assert.Equal(t, "a1", cookies[auth.AccessTokenCookie])
	assert.Equal(t, "r1", cookies[auth.RefreshTokenCookie])

	w, _ = serve(router, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	for _, c := range w.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}
	assert.Len(t, w.Result().Cookies(), 2)
}

func TestSession_RejectsInvalidRequests(t *testing.T) {
	router, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name string
		body string
	}{
		{"missing refresh token", `{"access_token":"a1","expires_in":3600}`},
		{"zero lifetime", `{"access_token":"a1","refresh_token":"r1","expires_in":0}`},
		{"negative lifetime", `{"access_token":"a1","refresh_token":"r1","expires_in":-5}`},
		{"missing lifetime", `{"access_token":"a1","refresh_token":"r1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/session", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w, body := serve(router, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Empty(t, w.Result().Cookies())
		})
	}
}
