package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/five82/cadence/internal/apierror"
	"github.com/five82/cadence/internal/auth"
	"github.com/five82/cadence/internal/logging"
)

const maxResponseBytes = 32 << 20

// call describes one round trip. route is the templated path used for
// metrics and spans; path is the concrete, already escaped path.
type call struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any
	dest   any
}

// RawResponse is a body returned untouched in raw mode.
type RawResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

func (c *Client) do(ctx context.Context, rc call) error {
	f := c.factory
	requestID := uuid.NewString()
	reqURL := c.resolve(rc.path, rc.query)

	var body io.Reader
	if rc.body != nil {
		payload, err := json.Marshal(rc.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	ctx, span := f.tracer.Start(ctx, "scheduler "+rc.method+" "+rc.route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", rc.method),
			attribute.String("url.full", reqURL),
			attribute.String("cadence.request_id", requestID),
			attribute.Bool("cadence.server_side", c.cfg.ServerSide),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, rc.method, reqURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.prepare(req, requestID)

	f.logger.Info("scheduler request", map[string]any{
		"url":        reqURL,
		"method":     rc.method,
		"headers":    logging.RedactHeader(req.Header),
		"baseURL":    c.cfg.BaseURL,
		"request_id": requestID,
	})

	started := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		apiErr := apierror.FromTransport(err)
		f.metrics.observe(rc.method, rc.route, outcomeTransport, time.Since(started))
		span.RecordError(err)
		span.SetStatus(codes.Error, apiErr.Message)
		f.logger.Error("scheduler response error", map[string]any{
			"message":    apiErr.Message,
			"url":        reqURL,
			"method":     rc.method,
			"request_id": requestID,
		})
		return apiErr
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		apiErr := apierror.FromTransport(fmt.Errorf("read response: %w", err))
		f.metrics.observe(rc.method, rc.route, outcomeTransport, time.Since(started))
		span.RecordError(err)
		span.SetStatus(codes.Error, apiErr.Message)
		f.logger.Error("scheduler response error", map[string]any{
			"status":     resp.StatusCode,
			"message":    apiErr.Message,
			"url":        reqURL,
			"method":     rc.method,
			"request_id": requestID,
		})
		return apiErr
	}
	resp.Body = logging.NewReplayBody(raw)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := apierror.FromResponse(resp.StatusCode, raw)
		f.metrics.observe(rc.method, rc.route, outcomeHTTPError, time.Since(started))
		span.SetStatus(codes.Error, apiErr.Message)
		f.logger.Error("scheduler response error", map[string]any{
			"status":     resp.StatusCode,
			"message":    apiErr.Message,
			"data":       logData(raw),
			"url":        reqURL,
			"method":     rc.method,
			"request_id": requestID,
		})
		return apiErr
	}

	f.metrics.observe(rc.method, rc.route, outcomeSuccess, time.Since(started))
	f.logger.Info("scheduler response", map[string]any{
		"status":     resp.StatusCode,
		"data":       logData(raw),
		"baseURL":    c.cfg.BaseURL,
		"request_id": requestID,
	})
	f.logger.Debug("scheduler response detail", map[string]any{"response": resp})

	return c.deliver(resp, raw, rc.dest)
}

// deliver hands a successful body to dest according to the response mode.
func (c *Client) deliver(resp *http.Response, raw []byte, dest any) error {
	if dest == nil {
		return nil
	}
	if out, ok := dest.(*RawResponse); ok {
		*out = RawResponse{
			Status:      resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        raw,
		}
		return nil
	}
	if c.cfg.ResponseMode == ResponseRaw {
		if out, ok := dest.(*[]byte); ok {
			*out = raw
			return nil
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &apierror.Error{Message: "decode response: " + err.Error(), Err: err}
	}
	return nil
}

// prepare attaches credentials and the per-call headers.
func (c *Client) prepare(req *http.Request, requestID string) {
	for name, values := range c.factory.resolver.Resolve(c.inbound) {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("Content-Type", c.cfg.ContentType)
	if c.cfg.ResponseMode == ResponseRaw {
		req.Header.Set("Accept", "*/*")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", auth.DefaultUserAgent())
	}
	req.Header.Set("X-Request-ID", requestID)
}

// resolve joins an escaped path onto the base URL.
func (c *Client) resolve(escapedPath string, query url.Values) string {
	u := *c.factory.baseURL
	joined := u.Path + escapedPath
	if unescaped, err := url.PathUnescape(joined); err == nil {
		u.Path = unescaped
		u.RawPath = joined
	} else {
		u.Path = joined
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// expand fills {id}-style segments of route with escaped values, in order.
func expand(route string, ids ...string) string {
	out := route
	for _, id := range ids {
		start := strings.IndexByte(out, '{')
		end := strings.IndexByte(out, '}')
		if start < 0 || end < start {
			break
		}
		out = out[:start] + url.PathEscape(id) + out[end+1:]
	}
	return out
}

// logData keeps JSON bodies structured and everything else as text.
func logData(raw []byte) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	if len(trimmed) > 4096 {
		trimmed = trimmed[:4096]
	}
	return string(trimmed)
}
