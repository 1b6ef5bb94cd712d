package scheduler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/five82/cadence/internal/auth"
	"github.com/five82/cadence/internal/logging"
)

const (
	defaultBaseURL     = "http://127.0.0.1:8000"
	defaultContentType = "application/json"
	// RequestTimeout is the ceiling for one call, connect through body read.
	RequestTimeout = 120 * time.Second

	defaultPage     = 1
	defaultPageSize = 20
)

// ResponseMode selects how a successful body is handed back.
type ResponseMode int

const (
	// ResponseJSON decodes the body into the caller's destination.
	ResponseJSON ResponseMode = iota
	// ResponseRaw returns the body bytes untouched.
	ResponseRaw
)

func (m ResponseMode) String() string {
	if m == ResponseRaw {
		return "raw"
	}
	return "json"
}

// FactoryConfig wires the shared pieces every client uses.
type FactoryConfig struct {
	BaseURL  string
	Resolver *auth.Resolver
	Logger   *logging.Logger
	// Registerer receives the client metrics; nil leaves them unregistered.
	Registerer prometheus.Registerer
	// Tracer defaults to the global otel provider.
	Tracer trace.Tracer
	// Transport overrides http.DefaultTransport, e.g. in tests.
	Transport http.RoundTripper
}

// Factory builds per-call-context clients over one shared http.Client.
type Factory struct {
	baseURL  *url.URL
	http     *http.Client
	resolver *auth.Resolver
	logger   *logging.Logger
	tracer   trace.Tracer
	metrics  *clientMetrics
}

// NewFactory validates the base URL and prepares the shared transport.
func NewFactory(cfg FactoryConfig) (*Factory, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = &auth.Resolver{Logger: cfg.Logger}
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("cadence.scheduler")
	}
	return &Factory{
		baseURL: base,
		http: &http.Client{
			Timeout:   RequestTimeout,
			Transport: cfg.Transport,
		},
		resolver: resolver,
		logger:   cfg.Logger,
		tracer:   tracer,
		metrics:  newClientMetrics(cfg.Registerer),
	}, nil
}

// BaseURL returns the normalized service root.
func (f *Factory) BaseURL() string { return f.baseURL.String() }

// ClientOption adjusts one client's configuration.
type ClientOption func(*Config)

// WithContentType overrides the application/json default.
func WithContentType(contentType string) ClientOption {
	return func(c *Config) {
		if ct := strings.TrimSpace(contentType); ct != "" {
			c.ContentType = ct
		}
	}
}

// WithResponseMode selects JSON decoding or raw bytes.
func WithResponseMode(mode ResponseMode) ClientOption {
	return func(c *Config) { c.ResponseMode = mode }
}

// Config is the effective setting of one client. Two clients built from the
// same factory, inbound request and options have equal Configs.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	ContentType  string
	ResponseMode ResponseMode
	ServerSide   bool
	// WithCredentials is always set: resolved credentials ride on every call.
	WithCredentials bool
}

// Client issues calls for one call context. inbound is nil for local calls.
type Client struct {
	factory *Factory
	inbound *http.Request
	cfg     Config
}

// Client returns a client bound to inbound. Pass nil outside a server request.
func (f *Factory) Client(inbound *http.Request, opts ...ClientOption) *Client {
	cfg := Config{
		BaseURL:         f.baseURL.String(),
		Timeout:         RequestTimeout,
		ContentType:     defaultContentType,
		ResponseMode:    ResponseJSON,
		ServerSide:      inbound != nil,
		WithCredentials: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Client{factory: f, inbound: inbound, cfg: cfg}
}

// Config reports the client's effective settings.
func (c *Client) Config() Config { return c.cfg }

// Targets groups the target endpoints.
func (c *Client) Targets() *TargetService { return &TargetService{c: c} }

// Schedules groups the schedule endpoints.
func (c *Client) Schedules() *ScheduleService { return &ScheduleService{c: c} }

// Runs groups the read-only run endpoints.
func (c *Client) Runs() *RunService { return &RunService{c: c} }

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
