// Package errs defines the error shapes returned by the API.
//
// Every handler error ends up as an HTTPError so clients always receive
// the same JSON body: a machine readable code, a message, the status and
// optional per-field validation errors.
package errs
