package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/five82/cadence/internal/apierror"
)

const (
	// DefaultTimezone renders the human-readable date field.
	DefaultTimezone = "Asia/Kolkata"

	dateLayout     = "1/2/2006, 3:04:05 PM"
	maxBodyPreview = 64 * 1024
	maxSourceDepth = 16
	packagePrefix  = "github.com/five82/cadence/internal/logging."
)

// Record is the flat, loggable form of a metadata map.
type Record map[string]any

// Formatter turns arbitrary metadata into a Record. It never panics.
type Formatter struct {
	Hostname string
	Location *time.Location
	Now      func() time.Time
}

// NewFormatter resolves the timezone by name, falling back to UTC.
func NewFormatter(hostname, timezone string) *Formatter {
	if strings.TrimSpace(timezone) == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &Formatter{Hostname: hostname, Location: loc, Now: time.Now}
}

// Format classifies every field and appends hostname, datetime, date and source.
func (f *Formatter) Format(meta map[string]any) Record {
	rec := make(Record, len(meta)+4)
	for key, value := range meta {
		rec[key] = classifyField(key, value)
	}

	now := time.Now()
	if f.Now != nil {
		now = f.Now()
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	rec["hostname"] = f.Hostname
	rec["datetime"] = now.UnixMilli()
	rec["date"] = now.In(loc).Format(dateLayout)
	rec["source"] = callSite()
	return rec
}

// classifier reports whether it handles value, and the extracted form.
type classifier func(key string, value any) (out any, ok bool, err error)

// classifiers run in priority order; the first match wins.
var classifiers = []classifier{
	classifyRequest,
	classifyResponse,
	classifyTagged,
	classifyError,
	classifyComposite,
	classifyPrimitive,
}

func classifyField(key string, value any) (out any) {
	defer func() {
		if r := recover(); r != nil {
			out = placeholder(fmt.Sprint(r))
		}
	}()
	for _, classify := range classifiers {
		extracted, ok, err := classify(key, value)
		if !ok {
			continue
		}
		if err != nil {
			return placeholder(err.Error())
		}
		return extracted
	}
	return placeholder(fmt.Sprintf("unsupported type %T", value))
}

func placeholder(reason string) string {
	return "[Unserializable data: " + reason + "]"
}

func classifyRequest(_ string, value any) (any, bool, error) {
	req, ok := value.(*http.Request)
	if !ok {
		return nil, false, nil
	}
	return requestInfo(req), true, nil
}

func classifyResponse(key string, value any) (any, bool, error) {
	switch v := value.(type) {
	case *http.Response:
		return responseInfo(v), true, nil
	case map[string]any:
		if key == "response" {
			return responseLike(v), true, nil
		}
	case nil:
		if key == "response" {
			return map[string]any{}, true, nil
		}
	}
	return nil, false, nil
}

func classifyTagged(_ string, value any) (any, bool, error) {
	err, ok := value.(error)
	if !ok {
		return nil, false, nil
	}
	var tagged *apierror.Tagged
	if !errors.As(err, &tagged) {
		return nil, false, nil
	}
	errorData := tagged.ErrorData()
	if raw, ok := errorData.(json.RawMessage); ok {
		errorData = decodeJSON(raw)
	}
	out := omitEmpty(map[string]any{
		"message":   tagged.Message,
		"errorData": errorData,
		"logCtx":    tagged.LogCtx,
		"stack":     tagged.Stack(),
	})
	out["logout"] = tagged.Logout
	return out, true, nil
}

type stacker interface {
	Stack() string
}

func classifyError(_ string, value any) (any, bool, error) {
	err, ok := value.(error)
	if !ok {
		return nil, false, nil
	}
	out := map[string]any{"message": err.Error()}
	if s, ok := err.(stacker); ok && s.Stack() != "" {
		out["stack"] = s.Stack()
	}
	return out, true, nil
}

func classifyComposite(_ string, value any) (any, bool, error) {
	if value == nil {
		return "null", true, nil
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct, reflect.Pointer:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, true, err
		}
		return string(data), true, nil
	}
	return nil, false, nil
}

func classifyPrimitive(_ string, value any) (any, bool, error) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String:
		return v.String(), true, nil
	case reflect.Bool:
		return v.Bool(), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), true, nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 64), true, nil
		}
		return f, true, nil
	}
	return nil, false, nil
}

func requestInfo(req *http.Request) map[string]any {
	if req == nil {
		return map[string]any{}
	}
	route := routePattern(req)
	if route == "" && req.URL != nil {
		route = req.URL.Path
	}
	info := map[string]any{
		"path":    strings.TrimSpace(req.Method + " " + route),
		"headers": RedactHeader(req.Header),
		"params":  pathParams(req),
		"body":    peekRequestBody(req),
	}
	if req.URL != nil {
		info["query"] = flattenValues(req.URL.Query())
	}
	return omitEmpty(info)
}

func responseInfo(resp *http.Response) map[string]any {
	if resp == nil {
		return map[string]any{}
	}
	info := map[string]any{
		"statusCode": resp.StatusCode,
		"headers":    RedactHeader(resp.Header),
		"data":       peekResponseBody(resp),
	}
	if resp.Request != nil {
		info["req"] = requestInfo(resp.Request)
		if resp.Request.URL != nil {
			info["path"] = resp.Request.URL.Path
		}
	}
	return omitEmpty(info)
}

func responseLike(m map[string]any) map[string]any {
	info := map[string]any{
		"path":    m["path"],
		"headers": m["headers"],
		"data":    m["data"],
	}
	if status, ok := m["status"]; ok {
		info["statusCode"] = status
	} else {
		info["statusCode"] = m["statusCode"]
	}
	switch req := m["request"].(type) {
	case *http.Request:
		info["req"] = requestInfo(req)
		if info["path"] == nil && req != nil && req.URL != nil {
			info["path"] = req.URL.Path
		}
	case map[string]any:
		info["req"] = omitEmpty(req)
	}
	if h, ok := info["headers"].(http.Header); ok {
		info["headers"] = RedactHeader(h)
	}
	return omitEmpty(info)
}

// routePattern returns the matched mux pattern without its method prefix.
func routePattern(req *http.Request) string {
	pattern := strings.TrimSpace(req.Pattern)
	if pattern == "" {
		return ""
	}
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		pattern = strings.TrimSpace(pattern[i+1:])
	}
	if i := strings.IndexByte(pattern, '/'); i > 0 {
		// drop a host qualifier
		pattern = pattern[i:]
	}
	return pattern
}

func pathParams(req *http.Request) map[string]any {
	pattern := routePattern(req)
	if pattern == "" {
		return nil
	}
	params := map[string]any{}
	for _, segment := range strings.Split(pattern, "/") {
		if !strings.HasPrefix(segment, "{") || !strings.HasSuffix(segment, "}") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimSuffix(segment[1:len(segment)-1], "..."), "$")
		if name == "" {
			continue
		}
		if value := req.PathValue(name); value != "" {
			params[name] = value
		}
	}
	return params
}

func peekRequestBody(req *http.Request) any {
	if req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil || body == nil {
		return nil
	}
	defer func() { _ = body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(body, maxBodyPreview))
	if err != nil {
		return nil
	}
	return decodeJSON(raw)
}

type byteser interface {
	Bytes() []byte
}

func peekResponseBody(resp *http.Response) any {
	if resp.Body == nil {
		return nil
	}
	b, ok := resp.Body.(byteser)
	if !ok {
		return nil
	}
	return decodeJSON(b.Bytes())
}

// decodeJSON returns the decoded value for JSON input, else the raw text.
func decodeJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	return string(raw)
}

func flattenValues(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for key, vals := range values {
		switch len(vals) {
		case 0:
		case 1:
			out[key] = vals[0]
		default:
			out[key] = append([]string(nil), vals...)
		}
	}
	return out
}

// omitEmpty drops nil, empty-string, NaN and empty collection values.
func omitEmpty(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		if isEmpty(value) {
			continue
		}
		out[key] = value
	}
	return out
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String:
		return v.Len() == 0
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(v.Float())
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.Array:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// a zero status code means "no response"
		return v.Int() == 0
	}
	return false
}

func callSite() string {
	pcs := make([]uintptr, maxSourceDepth+8)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var lines []string
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, packagePrefix) || isTestFrame(frame.Function) {
			lines = append(lines, fmt.Sprintf("%s\n\t%s:%d", frame.Function, frame.File, frame.Line))
			if len(lines) == maxSourceDepth {
				break
			}
		}
		if !more {
			break
		}
	}
	if len(lines) == 0 {
		return "Unknown source"
	}
	return strings.Join(lines, "\n")
}

func isTestFrame(function string) bool {
	name := strings.TrimPrefix(function, packagePrefix)
	return strings.HasPrefix(name, "Test")
}

// ReplayBody is an already-consumed response body that can be read again
// and whose bytes the formatter can log.
type ReplayBody struct {
	*bytes.Reader
	raw []byte
}

// NewReplayBody wraps raw so it can stand in for a consumed http body.
func NewReplayBody(raw []byte) *ReplayBody {
	return &ReplayBody{Reader: bytes.NewReader(raw), raw: raw}
}

func (b *ReplayBody) Bytes() []byte { return b.raw }

func (b *ReplayBody) Close() error { return nil }
