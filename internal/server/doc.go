// Package server exposes the relay over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so path wildcards are read with
// [http.Request.PathValue] and unsupported methods get a 405 from the mux.
//
// # Routes
//
//   - POST /webhook/sms : inbound SMS webhook, answers 200 "OK" or 500 "Internal Server Error"
//   - GET /test-catalog/{trackId} : track metadata as JSON (also served at /test-spotify/{trackId})
//   - GET /test-full/{trackId} : track metadata and matched video as JSON
//   - GET / : liveness JSON
//
// # Middleware
//
// [RequestLogger] tags each request with an X-Request-Id and logs method, path, status and duration.
// [Recoverer] turns panics into a 500 response.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
