// Package auth implements request authentication for the listener.
//
// Validate decides a single request against a Policy (Anonymous or Basic); New wraps
// it as Fiber middleware that re-reads the configuration on every request, so
// rotated credentials apply without rebinding the listener.
package auth
