package logging

import (
	"bytes"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/cadence/internal/apierror"
)

type panicky struct{}

func (panicky) MarshalJSON() ([]byte, error) { panic("marshal exploded") }

type nilReceiverErr struct{ msg *string }

func (e *nilReceiverErr) Error() string { return *e.msg }

func fixedFormatter() *Formatter {
	f := NewFormatter("cadence-test", "Asia/Kolkata")
	f.Now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return f
}

func TestFormat_AppendsContext(t *testing.T) {
	rec := fixedFormatter().Format(map[string]any{"k": "v"})

	assert.Equal(t, "cadence-test", rec["hostname"])
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli(), rec["datetime"])
	// 03:04:05 UTC is 08:34:05 in Asia/Kolkata
	assert.Equal(t, "1/2/2025, 8:34:05 AM", rec["date"])

	source, ok := rec["source"].(string)
	require.True(t, ok)
	assert.Contains(t, source, "TestFormat_AppendsContext")
	assert.NotContains(t, source, "logging.(*Formatter).Format")
	assert.NotContains(t, source, "logging.callSite")
}

func TestFormat_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	f := NewFormatter("", "Not/AZone")
	assert.Equal(t, time.UTC, f.Location)
}

func TestFormat_ResponseExtractsOnlyKnownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://api.local/runs?page=1", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp := &http.Response{
		StatusCode: 200,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       NewReplayBody([]byte(`{"total":3}`)),
		Request:    req,
	}

	rec := fixedFormatter().Format(map[string]any{"res": resp})

	out, ok := rec["res"].(map[string]any)
	require.True(t, ok, "response should be extracted into a map, got %T", rec["res"])
	keys := make([]string, 0, len(out))
	for key := range out {
		keys = append(keys, key)
	}
	assert.ElementsMatch(t, []string{"req", "path", "statusCode", "headers", "data"}, keys)
	assert.Equal(t, "/runs", out["path"])
	assert.Equal(t, 200, out["statusCode"])
	assert.Equal(t, map[string]any{"total": float64(3)}, out["data"])

	inner := out["req"].(map[string]any)
	assert.Equal(t, "GET /runs", inner["path"])
	assert.Equal(t, map[string]any{"page": "1"}, inner["query"])
	assert.Equal(t, Redacted, inner["headers"].(map[string]any)["Authorization"])
}

func TestFormat_ResponseOmitsEmptyFields(t *testing.T) {
	rec := fixedFormatter().Format(map[string]any{
		"bare":     &http.Response{Body: io.NopCloser(strings.NewReader("unreadable"))},
		"response": nil,
	})

	assert.Equal(t, map[string]any{}, rec["bare"])
	assert.Equal(t, map[string]any{}, rec["response"])
}

func TestFormat_FieldNamedResponseIsResponseLike(t *testing.T) {
	rec := fixedFormatter().Format(map[string]any{
		"response": map[string]any{
			"status":  404,
			"data":    map[string]any{"detail": "not found"},
			"headers": map[string]any{},
			"path":    "",
			"extra":   "dropped",
		},
	})

	assert.Equal(t, map[string]any{
		"statusCode": 404,
		"data":       map[string]any{"detail": "not found"},
	}, rec["response"])
}

func TestFormat_RequestUsesRoutePatternAndParams(t *testing.T) {
	var captured map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("GET /runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		captured = fixedFormatter().Format(map[string]any{"req": r})["req"].(map[string]any)
	})
	req := httptest.NewRequest(http.MethodGet, "/runs/abc?verbose=1&tag=a&tag=b", nil)
	req.Header.Set("Cookie", "access_token=t")
	req.Header.Set("User-Agent", "ua")
	mux.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, captured)
	assert.Equal(t, "GET /runs/{id}", captured["path"])
	assert.Equal(t, map[string]any{"id": "abc"}, captured["params"])
	assert.Equal(t, map[string]any{"verbose": "1", "tag": []string{"a", "b"}}, captured["query"])
	headers := captured["headers"].(map[string]any)
	assert.Equal(t, Redacted, headers["Cookie"])
	assert.Equal(t, "ua", headers["User-Agent"])
	assert.NotContains(t, captured, "body")
}

func TestFormat_RequestBodyFromGetBody(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "http://api.local/targets", bytes.NewReader([]byte(`{"name":"n"}`)))
	require.NoError(t, err)

	out := fixedFormatter().Format(map[string]any{"req": req})["req"].(map[string]any)
	assert.Equal(t, "POST /targets", out["path"])
	assert.Equal(t, map[string]any{"name": "n"}, out["body"])

	// the original body is untouched
	raw, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"n"}`, string(raw))
}

func TestFormat_ErrorKinds(t *testing.T) {
	cause := apierror.FromResponse(401, []byte(`{"detail":"expired"}`))
	tagged := apierror.NewTagged("session", cause, map[string]any{"user": "u1"}, true, 401)

	rec := fixedFormatter().Format(map[string]any{
		"tagged":  tagged,
		"plain":   errors.New("boom"),
		"wrapped": apierror.FromTransport(errors.New("dial tcp: refused")),
	})

	out := rec["tagged"].(map[string]any)
	assert.Equal(t, "session", out["message"])
	assert.Equal(t, map[string]any{"detail": "expired"}, out["errorData"])
	assert.Equal(t, map[string]any{"user": "u1"}, out["logCtx"])
	assert.Equal(t, true, out["logout"])
	assert.NotEmpty(t, out["stack"])

	assert.Equal(t, map[string]any{"message": "boom"}, rec["plain"])
	assert.Equal(t, map[string]any{"message": "dial tcp: refused"}, rec["wrapped"])
}

func TestFormat_CompositesAndPrimitives(t *testing.T) {
	type point struct {
		X int `json:"x"`
	}
	type label string

	rec := fixedFormatter().Format(map[string]any{
		"list":   []int{1, 2},
		"map":    map[string]int{"a": 1},
		"struct": point{X: 4},
		"nil":    nil,
		"str":    "text",
		"named":  label("active"),
		"int":    42,
		"uint":   uint8(7),
		"float":  1.5,
		"nan":    math.NaN(),
		"bool":   true,
	})

	assert.Equal(t, "[1,2]", rec["list"])
	assert.Equal(t, `{"a":1}`, rec["map"])
	assert.Equal(t, `{"x":4}`, rec["struct"])
	assert.Equal(t, "null", rec["nil"])
	assert.Equal(t, "text", rec["str"])
	assert.Equal(t, "active", rec["named"])
	assert.Equal(t, int64(42), rec["int"])
	assert.Equal(t, uint64(7), rec["uint"])
	assert.Equal(t, 1.5, rec["float"])
	assert.Equal(t, "NaN", rec["nan"])
	assert.Equal(t, true, rec["bool"])
}

func TestFormat_PlaceholderIsolatesFailures(t *testing.T) {
	var nilErr *nilReceiverErr
	rec := fixedFormatter().Format(map[string]any{
		"fn":      func() {},
		"ch":      make(chan int),
		"panics":  panicky{},
		"nilerr":  error(&nilReceiverErr{}),
		"typed":   nilErr,
		"healthy": "still here",
	})

	assert.Equal(t, "[Unserializable data: unsupported type func()]", rec["fn"])
	assert.Equal(t, "[Unserializable data: unsupported type chan int]", rec["ch"])
	assert.True(t, strings.HasPrefix(rec["panics"].(string), "[Unserializable data: "), rec["panics"])
	assert.Contains(t, rec["panics"], "marshal exploded")
	assert.True(t, strings.HasPrefix(rec["nilerr"].(string), "[Unserializable data: "), rec["nilerr"])
	assert.True(t, strings.HasPrefix(rec["typed"].(string), "[Unserializable data: "), rec["typed"])
	assert.Equal(t, "still here", rec["healthy"])
}

func TestRedactHeader(t *testing.T) {
	assert.Nil(t, RedactHeader(nil))

	out := RedactHeader(http.Header{
		"Authorization": {"Bearer t"},
		"Set-Cookie":    {"a=b"},
		"X-Api-Key":     {"k"},
		"Accept":        {"application/json", "text/plain"},
	})
	assert.Equal(t, map[string]any{
		"Authorization": Redacted,
		"Set-Cookie":    Redacted,
		"X-Api-Key":     Redacted,
		"Accept":        "application/json, text/plain",
	}, out)
}
