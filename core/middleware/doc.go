// Package middleware contains HTTP middleware for the Fiber application.
//
// It provides cross-cutting concerns that sit between the request and the handler.
//
// # Components
//
//   - Auth: Anonymous or HTTP Basic authentication, re-evaluated against the live
//     configuration on every request, with a 401 challenge on rejection.
//   - RayID: Tags every incoming request with a Request ID (RayID), injecting it
//     into the context and response headers for tracing.
package middleware
