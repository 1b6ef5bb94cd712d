package logging

import (
	"net/http"
	"strings"
)

// Redacted replaces credential-bearing header values in log output.
const Redacted = "[REDACTED]"

var sensitiveHeaders = map[string]struct{}{
	"Authorization":       {},
	"Proxy-Authorization": {},
	"Cookie":              {},
	"Set-Cookie":          {},
	"X-Api-Key":           {},
}

// RedactHeader flattens h into a loggable map with credentials masked.
func RedactHeader(h http.Header) map[string]any {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]any, len(h))
	for key, values := range h {
		canonical := http.CanonicalHeaderKey(key)
		if _, secret := sensitiveHeaders[canonical]; secret {
			out[canonical] = Redacted
			continue
		}
		out[canonical] = strings.Join(values, ", ")
	}
	return out
}
