// Package auth resolves the credential headers attached to every call made
// to the scheduling service.
//
// Two call origins are supported. A server-side call has an inbound
// *http.Request: the access_token cookie becomes a bearer Authorization
// header and the Cookie and client identity headers are forwarded as-is.
// A local call has no inbound request: the token pair is read from a
// TokenStore, by default a TOML cookie jar on disk (FileStore).
//
// Missing credentials are never an error. The call proceeds without an
// Authorization header and the remote service decides.
package auth
