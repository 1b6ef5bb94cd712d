// Package apierror defines the error shapes shared by the scheduler client,
// the logging formatter and the callers that render failures.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrInvalidPayload marks a payload rejected locally before it was sent.
var ErrInvalidPayload = errors.New("invalid payload")

// Error is the normalized failure returned for every failed remote call.
//
// Status and Payload are only set when the remote service answered; a
// transport fault (timeout, DNS, refused connection) carries a message and
// the underlying cause only.
type Error struct {
	Message string
	Status  int
	Payload json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Transport reports whether the failure happened before any response arrived.
// Local payload rejections never reached the network and are not transport
// faults.
func (e *Error) Transport() bool {
	return e != nil && e.Status == 0 && len(e.Payload) == 0 && !errors.Is(e.Err, ErrInvalidPayload)
}

// Rejected builds the failure for a payload that failed local checks.
func Rejected(problems string) *Error {
	return &Error{
		Message: fmt.Sprintf("%s: %s", ErrInvalidPayload, problems),
		Err:     fmt.Errorf("%w: %s", ErrInvalidPayload, problems),
	}
}

// Decode unmarshals the attached payload into dest.
func (e *Error) Decode(dest any) error {
	if e == nil || len(e.Payload) == 0 {
		return fmt.Errorf("no payload attached")
	}
	return json.Unmarshal(e.Payload, dest)
}

// As returns the normalized failure wrapped in err, if any.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusCode returns the remote status attached to err, or zero.
func StatusCode(err error) int {
	if apiErr, ok := As(err); ok {
		return apiErr.Status
	}
	return 0
}

// FromResponse builds the failure for a non-success response. The message
// prefers the upstream "detail" field, then "message", then "HTTP <status>".
func FromResponse(status int, body []byte) *Error {
	e := &Error{Status: status, Message: fmt.Sprintf("HTTP %d", status)}
	if len(body) > 0 {
		if json.Valid(body) {
			e.Payload = json.RawMessage(body)
		} else {
			// keep non-JSON bodies inspectable as a JSON string
			quoted, _ := json.Marshal(string(body))
			e.Payload = quoted
		}
	}
	if msg := upstreamMessage(body); msg != "" {
		e.Message = msg
	}
	return e
}

// FromTransport wraps a fault where no response was received.
func FromTransport(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: err.Error(), Err: err}
}

func upstreamMessage(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			if text != "" {
				return text
			}
			continue
		}
		// structured detail, e.g. a list of validation errors
		return string(raw)
	}
	return ""
}

// Tagged is a domain error carrying the upstream failure it wraps, a logging
// context and an optional auth-invalidation flag.
type Tagged struct {
	Message string
	Err     error
	LogCtx  map[string]any
	Logout  bool
	Code    int
	stack   string
}

// NewTagged captures the current stack alongside the wrapped error.
func NewTagged(message string, err error, logCtx map[string]any, logout bool, code int) *Tagged {
	return &Tagged{
		Message: message,
		Err:     err,
		LogCtx:  logCtx,
		Logout:  logout,
		Code:    code,
		stack:   string(debug.Stack()),
	}
}

func (t *Tagged) Error() string {
	if t.Err == nil {
		return t.Message
	}
	return t.Message + ": " + t.Err.Error()
}

func (t *Tagged) Unwrap() error { return t.Err }

// Stack returns the stack captured at construction.
func (t *Tagged) Stack() string { return t.stack }

// ErrorData returns what is known about the wrapped failure: the remote
// payload when the cause is a normalized failure with one, otherwise the
// cause's message.
func (t *Tagged) ErrorData() any {
	if t.Err == nil {
		return nil
	}
	if apiErr, ok := As(t.Err); ok && len(apiErr.Payload) > 0 {
		return apiErr.Payload
	}
	return t.Err.Error()
}
