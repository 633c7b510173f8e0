// Package validation binds echo requests into payload structs and turns
// their failures into 400 responses with one entry per field, named the
// way the client sent it (json, query or path parameter name).
package validation
