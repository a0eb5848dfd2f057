// Package router assembles the fiber application served by one listener run.
//
// Middleware order:
//  1. RayID, so every log line of a request can be correlated
//  2. Recover, turning handler panics into pipeline faults
//  3. Metrics
//  4. /metrics and /swagger/* when enabled, outside the prefix and without auth
//  5. The authentication middleware and every loaded feature under the prefix
//
// Pipeline faults end in the error handler: they are logged at error level,
// answered with 500 and the connection is closed.
package router
