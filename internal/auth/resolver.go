package auth

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/five82/cadence/internal/logging"
)

// Version is stamped into the runtime identity sent by local callers.
var Version = "0.1"

// forwardedIdentity lists the inbound headers copied verbatim on the
// server-side path.
var forwardedIdentity = []string{"X-Forwarded-For", "X-Real-Ip", "User-Agent"}

// Resolver computes the credential headers for one outbound call.
type Resolver struct {
	Store     TokenStore
	UserAgent string
	Logger    *logging.Logger
}

// DefaultUserAgent identifies this process to the remote service.
func DefaultUserAgent() string {
	return fmt.Sprintf("cadence/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}

// Resolve returns the headers to attach. A non-nil inbound request selects
// the server-side path; nil selects the local token store. It never does
// network I/O and never fails: missing credentials yield fewer headers.
func (r *Resolver) Resolve(inbound *http.Request) http.Header {
	if inbound != nil {
		return r.fromInbound(inbound)
	}
	return r.fromStore()
}

func (r *Resolver) fromInbound(inbound *http.Request) http.Header {
	out := http.Header{}
	cookieHeader := inbound.Header.Get("Cookie")

	if token := cookieValue(inbound, AccessTokenCookie); token != "" {
		out.Set("Authorization", "Bearer "+token)
	} else {
		r.logger().Warn("access token missing from inbound cookies", map[string]any{
			"req": inbound,
		})
	}
	if cookieHeader != "" {
		out.Set("Cookie", cookieHeader)
	}
	for _, name := range forwardedIdentity {
		if value := inbound.Header.Get(name); value != "" {
			out.Set(name, value)
		}
	}
	return out
}

func (r *Resolver) fromStore() http.Header {
	out := http.Header{}
	if r.Store == nil {
		return out
	}
	tokens, ok, err := r.Store.Load()
	if err != nil {
		r.logger().Warn("token store unreadable", map[string]any{"error": err})
		return out
	}
	if !ok || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return out
	}
	out.Set("Authorization", "Bearer "+tokens.AccessToken)
	ua := strings.TrimSpace(r.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent()
	}
	out.Set("User-Agent", ua)
	return out
}

func (r *Resolver) logger() *logging.Logger {
	if r == nil {
		return nil
	}
	return r.Logger
}

// cookieValue reads one cookie from the inbound request, empty when absent.
func cookieValue(req *http.Request, name string) string {
	c, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}
