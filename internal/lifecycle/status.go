package lifecycle

import "strings"

// Variant is the severity class a status renders with.
type Variant string

const (
	VariantSuccess Variant = "success"
	VariantWarning Variant = "warning"
	VariantMuted   Variant = "muted"
	VariantError   Variant = "error"
	VariantInfo    Variant = "info"
)

// Badge is the display form of a status.
type Badge struct {
	Label    string
	Variant  Variant
	Icon     string
	Animated bool
}

// ScheduleStatus is the lifecycle state of a schedule.
type ScheduleStatus string

const (
	ScheduleActive  ScheduleStatus = "active"
	SchedulePaused  ScheduleStatus = "paused"
	ScheduleExpired ScheduleStatus = "expired"
	ScheduleDeleted ScheduleStatus = "deleted"
)

// ScheduleStatuses lists every schedule state in display order.
var ScheduleStatuses = []ScheduleStatus{ScheduleActive, SchedulePaused, ScheduleExpired, ScheduleDeleted}

// Action is a client-initiated schedule transition.
type Action string

const (
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionDelete Action = "delete"
)

var scheduleBadges = map[ScheduleStatus]Badge{
	ScheduleActive:  {Label: "Active", Variant: VariantSuccess, Icon: "▶"},
	SchedulePaused:  {Label: "Paused", Variant: VariantWarning, Icon: "⏸"},
	ScheduleExpired: {Label: "Expired", Variant: VariantMuted, Icon: "◷"},
	ScheduleDeleted: {Label: "Deleted", Variant: VariantMuted, Icon: "✕"},
}

// clientTransitions holds the only edges a client may request.
var clientTransitions = map[ScheduleStatus]map[Action]ScheduleStatus{
	ScheduleActive: {
		ActionPause:  SchedulePaused,
		ActionDelete: ScheduleDeleted,
	},
	SchedulePaused: {
		ActionResume: ScheduleActive,
		ActionDelete: ScheduleDeleted,
	},
}

// Valid reports whether s is a known schedule state.
func (s ScheduleStatus) Valid() bool {
	_, ok := scheduleBadges[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s ScheduleStatus) Terminal() bool {
	return s == ScheduleExpired || s == ScheduleDeleted
}

// Allows reports whether the client may offer action from s. It decides
// what the UI shows; the remote service remains the authority.
func (s ScheduleStatus) Allows(action Action) bool {
	_, ok := clientTransitions[s][action]
	return ok
}

// Actions returns the client actions available from s, in a stable order.
func (s ScheduleStatus) Actions() []Action {
	var out []Action
	for _, a := range []Action{ActionPause, ActionResume, ActionDelete} {
		if s.Allows(a) {
			out = append(out, a)
		}
	}
	return out
}

// Expect returns the status the remote is expected to report after action.
// It is never applied locally.
func (s ScheduleStatus) Expect(action Action) (ScheduleStatus, bool) {
	next, ok := clientTransitions[s][action]
	return next, ok
}

// SystemTransition reports whether the remote engine alone may move s to
// next. Only an elapsed window moves active to expired.
func (s ScheduleStatus) SystemTransition(next ScheduleStatus) bool {
	return s == ScheduleActive && next == ScheduleExpired
}

// Badge returns the display form of s. Unknown states render muted with
// their raw text.
func (s ScheduleStatus) Badge() Badge {
	if b, ok := scheduleBadges[s]; ok {
		return b
	}
	return Badge{Label: string(s), Variant: VariantMuted}
}

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunPending RunStatus = "pending"
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// RunStatuses lists every run state in lifecycle order.
var RunStatuses = []RunStatus{RunPending, RunRunning, RunSuccess, RunFailed}

var runBadges = map[RunStatus]Badge{
	RunPending: {Label: "Pending", Variant: VariantMuted, Icon: "◷"},
	RunRunning: {Label: "Running", Variant: VariantInfo, Icon: "⟳", Animated: true},
	RunSuccess: {Label: "Success", Variant: VariantSuccess, Icon: "✓"},
	RunFailed:  {Label: "Failed", Variant: VariantError, Icon: "✕"},
}

func (s RunStatus) rank() int {
	switch s {
	case RunPending:
		return 0
	case RunRunning:
		return 1
	case RunSuccess, RunFailed:
		return 2
	}
	return -1
}

func (s RunStatus) Valid() bool { return s.rank() >= 0 }

func (s RunStatus) Terminal() bool { return s.rank() == 2 }

// CanAdvance reports whether the engine may move a run from s to next.
// Runs only move forward. The client observes this, it never applies it.
func (s RunStatus) CanAdvance(next RunStatus) bool {
	from, to := s.rank(), next.rank()
	if from < 0 || to < 0 {
		return false
	}
	if from == 0 {
		return to == 1
	}
	return from == 1 && to == 2
}

func (s RunStatus) Badge() Badge {
	if b, ok := runBadges[s]; ok {
		return b
	}
	return Badge{Label: string(s), Variant: VariantMuted}
}

// ErrorType is the failure category the remote engine tags a run with.
type ErrorType string

const (
	ErrorTimeout    ErrorType = "timeout"
	ErrorDNS        ErrorType = "dns_error"
	ErrorConnection ErrorType = "connection_error"
	ErrorSSL        ErrorType = "ssl_error"
	ErrorHTTP4xx    ErrorType = "http_4xx"
	ErrorHTTP5xx    ErrorType = "http_5xx"
	ErrorUnknown    ErrorType = "unknown"
)

// ErrorTypes lists the taxonomy in display order.
var ErrorTypes = []ErrorType{
	ErrorTimeout, ErrorDNS, ErrorConnection, ErrorSSL, ErrorHTTP4xx, ErrorHTTP5xx, ErrorUnknown,
}

func (e ErrorType) Label() string {
	return strings.ReplaceAll(string(e), "_", " ")
}

func (e ErrorType) Badge() Badge {
	if e == "success" {
		return Badge{Label: e.Label(), Variant: VariantSuccess, Icon: "✓"}
	}
	return Badge{Label: e.Label(), Variant: VariantError, Icon: "!"}
}

// MethodTone names the color family of an HTTP method badge.
type MethodTone string

const (
	ToneEmerald MethodTone = "emerald"
	ToneSky     MethodTone = "sky"
	ToneAmber   MethodTone = "amber"
	ToneOrange  MethodTone = "orange"
	ToneRose    MethodTone = "rose"
	ToneSlate   MethodTone = "slate"
)

var methodTones = map[string]MethodTone{
	"GET":     ToneEmerald,
	"POST":    ToneSky,
	"PUT":     ToneAmber,
	"PATCH":   ToneOrange,
	"DELETE":  ToneRose,
	"HEAD":    ToneSlate,
	"OPTIONS": ToneSlate,
}

// MethodVariant returns the tone for method. Unknown methods look like GET.
func MethodVariant(method string) MethodTone {
	if tone, ok := methodTones[strings.ToUpper(strings.TrimSpace(method))]; ok {
		return tone
	}
	return ToneEmerald
}
