// Package hypercast provides an embeddable hypermedia server core for
// host applications that intercept a custom URL scheme, such as desktop
// shells with a request interception API.
//
// Hypercast plays the role an HTTP framework plays in a networked app, but
// speaks to the host shell instead of a socket: the host hands it request
// descriptors (method, path, cancellation) and receives response
// descriptors (status, headers, body) back. Two kinds of traffic flow
// through it:
//
//   - One-shot requests, resolved by [App.Dispatch] against registered
//     exact and catch-all routes.
//   - Long-lived event streams, opened by [App.OpenStream] and fed by the
//     broadcast methods ([App.Broadcast], [App.MergeFragments],
//     [App.MergeSignals], [App.ExecuteScript], [App.RemoveSignals],
//     [App.RemoveFragments]).
//
// # Quick Start
//
// Create an App, register routes, and wire it to the host's lifecycle:
//
//	app, _ := hypercast.New(hypercast.WithScheme("myapp"))
//
//	app.Handle("GET", "/", func(r *hypercast.Request) (*hypercast.Response, error) {
//	    return hypercast.HTMLResponse(200, "<h1>hello</h1>"), nil
//	})
//	app.HandlePrefix("GET", "/static/*", serveAsset)
//
//	// host "ready" hook
//	app.Ready()
//
//	// per intercepted request
//	resp := app.Dispatch(req.Context(), req.Method, req.URL)
//
//	// host "quitting" hook
//	app.Shutdown()
//
// Dispatch never fails from the host's point of view: unmatched requests
// become 404 responses and handler errors or panics become 500 responses.
//
// # Routing
//
// Exact routes bind one method+path pair; later registrations for the same
// pair silently replace earlier ones. Catch-all routes are registered with
// a pattern ending in "/*" and match every path under the prefix, receiving
// the unmatched suffix in [Request.Rest]. An exact match always wins over
// any catch-all; among catch-alls the first structurally matching route in
// registration order wins.
//
// # Streaming
//
// [App.OpenStream] returns a response whose body is an endless event
// stream. The host streams bytes from it until the request's cancellation
// signal fires, which removes the connection from the hub. Frames follow
// the standard server-sent-events grammar; the [sse] subpackage encodes
// them.
//
// # Architecture
//
// The package is organized as:
//
//   - root: route table, dispatcher, public request/response types
//   - internal/hub: streaming connection registry and fan-out
//   - internal/metrics: optional Prometheus instrumentation
//   - sse: pure frame encoders for the event-stream wire format
//   - config: YAML configuration for the standalone preview binary
//   - internal/preview: plain-HTTP host adapter for local development
package hypercast
