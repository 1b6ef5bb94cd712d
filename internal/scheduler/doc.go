// Package scheduler provides the HTTP client for the remote scheduling
// service.
//
// # Overview
//
// Every call to the service goes through one shared executor. It attaches
// credentials, records a span and metrics, logs the request and the
// response through the injected logger, and turns any failure into a single
// error shape, *apierror.Error.
//
// # Architecture
//
//   - client.go: Factory, per-call-context Client, options and configuration
//   - executor.go: the shared round trip (credentials, logging, errors)
//   - metrics.go: prometheus counters and latency histogram
//   - system.go: health, metrics and raw passthrough
//   - targets.go, schedules.go, runs.go: grouped resource services
//   - types.go: data structures mirroring the service schema
//   - validate.go: payload shape checks run before sending
//
// # Client Usage
//
// Build one Factory at process start, then one Client per call context:
//
//	factory, err := scheduler.NewFactory(scheduler.FactoryConfig{
//		BaseURL:  cfg.APIURL,
//		Resolver: &auth.Resolver{Store: store, Logger: logger},
//		Logger:   logger,
//	})
//	if err != nil {
//		return err
//	}
//
//	// local process: credentials come from the token store
//	runs, err := factory.Client(nil).Runs().List(ctx, scheduler.RunFilter{})
//
//	// inside an HTTP handler: credentials come from the inbound cookies
//	target, err := factory.Client(r).Targets().Get(r.Context(), id)
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation
//   - Carry Content-Type (application/json unless overridden), Accept and
//     a fresh X-Request-ID
//   - Share a 120-second ceiling covering connect through body read
//   - Are never retried
//
// # Error Handling
//
// A response with status >= 400 yields an *apierror.Error whose message is
// the body's "detail" field, else its "message" field, else "HTTP <status>".
// The status code and raw body are attached. A connection-level failure
// (refused, DNS, timeout) yields an *apierror.Error with the transport
// message only.
//
//	if apierror.StatusCode(err) == http.StatusNotFound {
//		// render "not found"
//	}
//
// Payloads failing the local shape check come back as *apierror.Error
// wrapping ErrInvalidPayload and are never sent.
package scheduler
