// Package server provides HTTP routing, middleware and the JSON API behind `playlog serve`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # API
//
// [API] exposes the aggregation engine and the sync history:
//   - GET /health : liveness and store presence
//   - GET /api/stats : [models.AggregationResult] for ?year= (default: current year) and ?top=
//   - GET /api/sync/runs : recent sync runs, ?limit= and ?status=
//   - POST /api/sync : run one ingestion cycle now
//
// Error responses are JSON objects with a single "error" field. Missing stores map to 404,
// schema errors to 422 and fetch failures to 502.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
