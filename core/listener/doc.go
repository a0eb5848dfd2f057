// Package listener owns the lifecycle of the embedded HTTP listener.
//
// A Lifecycle binds one TCP (or TLS) listener per run and drives a single accept
// goroutine for it. Every accepted connection is handed to its own goroutine
// before Accept is called again, and is served by fasthttp with the request
// handler built for that run.
//
// Stop only closes the listening socket: requests already being handled run to
// completion and their connections are closed afterwards. Errors produced by the
// socket going away under a pending Accept are the expected shutdown race and are
// never reported as failures.
package listener
