// Package middleware holds the echo middleware of the API: request ids,
// gateway identity, the request-scoped logger, tracing, rate limiting and
// the global error handler.
package middleware
