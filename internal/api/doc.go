// Package api is the HTTP front end of the bridge.
//
// Routes:
//   - POST /alexa/v3/directive: one Alexa Smart Home directive in, one event out
//   - GET /health: component health, 503 when any check fails
//   - GET /metrics: Prometheus exposition (when metrics are enabled)
//   - GET /api/v1/audit: paginated directive audit log
//
// Alexa errors are not HTTP errors: a failed directive still answers 200
// with an ErrorResponse event. Non-2xx codes are reserved for requests that
// are not directives at all.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
