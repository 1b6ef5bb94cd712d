package scheduler

import (
	"encoding/json"
	"time"

	"github.com/five82/cadence/internal/lifecycle"
)

// remoteTimestampLayout is the naive ISO form the service emits; it is UTC.
const remoteTimestampLayout = "2006-01-02T15:04:05.999999"

// ScheduleType selects how a schedule repeats.
type ScheduleType string

const (
	// ScheduleInterval runs forever at a fixed period.
	ScheduleInterval ScheduleType = "interval"
	// ScheduleWindow runs at a fixed period until its duration elapses.
	ScheduleWindow ScheduleType = "window"
)

// Health mirrors GET /health.
type Health struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Scheduler string `json:"scheduler"`
	Timestamp string `json:"timestamp"`
}

// Healthy reports whether every component said "healthy".
func (h *Health) Healthy() bool {
	if h == nil {
		return false
	}
	return h.Status == "healthy" && h.Database == "healthy" && h.Scheduler == "healthy"
}

// SystemMetrics mirrors GET /metrics.
type SystemMetrics struct {
	Timestamp    string             `json:"timestamp"`
	TargetsCount int                `json:"targets_count"`
	Schedules    ScheduleCounts     `json:"schedules"`
	Runs         RunCounts          `json:"runs"`
	Errors       ErrorCounts        `json:"errors"`
	Performance  PerformanceMetrics `json:"performance"`
}

type ScheduleCounts struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Paused  int `json:"paused"`
	Expired int `json:"expired"`
}

type RunCounts struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
	Running int `json:"running"`
}

type ErrorCounts struct {
	Timeout         int `json:"timeout"`
	DNSError        int `json:"dns_error"`
	ConnectionError int `json:"connection_error"`
	SSLError        int `json:"ssl_error"`
	HTTP4xx         int `json:"http_4xx"`
	HTTP5xx         int `json:"http_5xx"`
	Unknown         int `json:"unknown"`
}

// ByType returns the counts keyed by taxonomy tag.
func (e ErrorCounts) ByType() map[lifecycle.ErrorType]int {
	return map[lifecycle.ErrorType]int{
		lifecycle.ErrorTimeout:    e.Timeout,
		lifecycle.ErrorDNS:        e.DNSError,
		lifecycle.ErrorConnection: e.ConnectionError,
		lifecycle.ErrorSSL:        e.SSLError,
		lifecycle.ErrorHTTP4xx:    e.HTTP4xx,
		lifecycle.ErrorHTTP5xx:    e.HTTP5xx,
		lifecycle.ErrorUnknown:    e.Unknown,
	}
}

type PerformanceMetrics struct {
	AvgLatencyMs *float64 `json:"avg_latency_ms"`
	MinLatencyMs *float64 `json:"min_latency_ms"`
	MaxLatencyMs *float64 `json:"max_latency_ms"`
	SuccessRate  float64  `json:"success_rate"`
}

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// IsEmpty reports a successful load with zero items.
func (p *Page[T]) IsEmpty() bool {
	return p != nil && len(p.Items) == 0
}

// HasNext reports whether a later page exists.
func (p *Page[T]) HasNext() bool {
	return p != nil && p.Page < p.TotalPages
}

// Target is an HTTP endpoint the engine calls.
type Target struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	URL            string            `json:"url"`
	Method         string            `json:"method"`
	Headers        map[string]string `json:"headers"`
	Body           *string           `json:"body"`
	TimeoutSeconds int               `json:"timeout_seconds"`
	Description    *string           `json:"description"`
	CreatedAt      string            `json:"created_at"`
	UpdatedAt      string            `json:"updated_at"`
	ScheduleCount  int               `json:"schedule_count"`
	TotalRuns      *int              `json:"total_runs,omitempty"`
	SuccessfulRuns *int              `json:"successful_runs,omitempty"`
	FailedRuns     *int              `json:"failed_runs,omitempty"`
}

func (t Target) ParsedCreatedAt() time.Time { return parseTime(t.CreatedAt) }

func (t Target) ParsedUpdatedAt() time.Time { return parseTime(t.UpdatedAt) }

// TargetCreate is the POST /targets payload.
type TargetCreate struct {
	Name           string            `json:"name" validate:"required"`
	URL            string            `json:"url" validate:"required,url"`
	Method         string            `json:"method" validate:"required"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           *string           `json:"body,omitempty"`
	TimeoutSeconds *int              `json:"timeout_seconds,omitempty"`
	Description    *string           `json:"description,omitempty"`
}

// TargetUpdate is the PUT /targets/{id} payload. Nil fields are left alone.
type TargetUpdate struct {
	Name           *string           `json:"name,omitempty" validate:"omitnil,min=1"`
	URL            *string           `json:"url,omitempty" validate:"omitnil,url"`
	Method         *string           `json:"method,omitempty" validate:"omitnil,min=1"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           *string           `json:"body,omitempty"`
	TimeoutSeconds *int              `json:"timeout_seconds,omitempty"`
	Description    *string           `json:"description,omitempty"`
}

// Schedule binds a target to a cadence.
type Schedule struct {
	ID              string                   `json:"id"`
	TargetID        string                   `json:"target_id"`
	ScheduleType    ScheduleType             `json:"schedule_type"`
	IntervalSeconds int                      `json:"interval_seconds"`
	DurationSeconds *int                     `json:"duration_seconds"`
	Status          lifecycle.ScheduleStatus `json:"status"`
	NextRunAt       string                   `json:"next_run_at"`
	WindowEndsAt    *string                  `json:"window_ends_at"`
	IsExecuting     bool                     `json:"is_executing"`
	LastRunAt       *string                  `json:"last_run_at"`
	RunCount        int                      `json:"run_count"`
	CreatedAt       string                   `json:"created_at"`
	UpdatedAt       string                   `json:"updated_at"`
	Target          *Target                  `json:"target,omitempty"`
}

// Consistent reports whether the duration is present exactly for window
// schedules. The client displays inconsistent records as received.
func (s Schedule) Consistent() bool {
	return (s.DurationSeconds != nil) == (s.ScheduleType == ScheduleWindow)
}

func (s Schedule) ParsedNextRunAt() time.Time { return parseTime(s.NextRunAt) }

func (s Schedule) ParsedLastRunAt() time.Time {
	if s.LastRunAt == nil {
		return time.Time{}
	}
	return parseTime(*s.LastRunAt)
}

func (s Schedule) ParsedWindowEndsAt() time.Time {
	if s.WindowEndsAt == nil {
		return time.Time{}
	}
	return parseTime(*s.WindowEndsAt)
}

// ScheduleCreate is the POST /schedules payload.
type ScheduleCreate struct {
	TargetID        string       `json:"target_id" validate:"required"`
	ScheduleType    ScheduleType `json:"schedule_type" validate:"required,oneof=interval window"`
	IntervalSeconds int          `json:"interval_seconds" validate:"required"`
	DurationSeconds *int         `json:"duration_seconds,omitempty" validate:"required_if=ScheduleType window,excluded_if=ScheduleType interval"`
}

// Run is one historical execution. Runs are read-only.
type Run struct {
	ID              string              `json:"id"`
	ScheduleID      string              `json:"schedule_id"`
	IdempotencyKey  string              `json:"idempotency_key"`
	Status          lifecycle.RunStatus `json:"status"`
	ScheduledAt     string              `json:"scheduled_at"`
	StartedAt       *string             `json:"started_at"`
	FinishedAt      *string             `json:"finished_at"`
	StatusCode      *int                `json:"status_code"`
	LatencyMs       *float64            `json:"latency_ms"`
	ResponseSize    *int64              `json:"response_size"`
	ErrorType       *string             `json:"error_type"`
	ErrorMessage    *string             `json:"error_message"`
	RequestURL      string              `json:"request_url"`
	RequestMethod   string              `json:"request_method"`
	RequestHeaders  map[string]any      `json:"request_headers,omitempty"`
	RequestBody     json.RawMessage     `json:"request_body,omitempty"`
	ResponseHeaders map[string]any      `json:"response_headers,omitempty"`
	ResponseBody    json.RawMessage     `json:"response_body,omitempty"`
	CreatedAt       string              `json:"created_at"`
	UpdatedAt       string              `json:"updated_at"`
}

// UnmarshalJSON accepts completed_at as a deprecated spelling of finished_at.
func (r *Run) UnmarshalJSON(data []byte) error {
	type plain Run
	aux := struct {
		*plain
		CompletedAt *string `json:"completed_at"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.FinishedAt == nil && aux.CompletedAt != nil {
		r.FinishedAt = aux.CompletedAt
	}
	return nil
}

// Taxonomy returns the error tag, empty when the run did not fail.
func (r Run) Taxonomy() lifecycle.ErrorType {
	if r.ErrorType == nil {
		return ""
	}
	return lifecycle.ErrorType(*r.ErrorType)
}

func (r Run) ParsedScheduledAt() time.Time { return parseTime(r.ScheduledAt) }

func (r Run) ParsedStartedAt() time.Time {
	if r.StartedAt == nil {
		return time.Time{}
	}
	return parseTime(*r.StartedAt)
}

func (r Run) ParsedFinishedAt() time.Time {
	if r.FinishedAt == nil {
		return time.Time{}
	}
	return parseTime(*r.FinishedAt)
}

// Latency returns the recorded latency, zero when unknown.
func (r Run) Latency() time.Duration {
	if r.LatencyMs == nil {
		return 0
	}
	return time.Duration(*r.LatencyMs * float64(time.Millisecond))
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(remoteTimestampLayout, value, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}
