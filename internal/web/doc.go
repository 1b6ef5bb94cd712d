// Package web serves the dashboard's data over HTTP with gin.
//
// Loaders answer GET requests with a JSON envelope that always carries an
// "error" key: null on success, the normalized message on failure. A failed
// loader still answers 200 with empty pages so a page can render its empty
// state next to the error banner.
//
// Actions accept form posts selected by an "intent" field and answer
// {success, message}. Payloads that fail local shape checks never reach the
// scheduling service.
//
// Every outbound call is made with a client bound to the inbound request, so
// the browser's session cookies become the bearer credential. /auth/session
// and /auth/logout issue and clear those cookies.
package web
