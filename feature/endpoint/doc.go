// Package endpoint answers every request under the configured path prefix.
//
// Each request that passed authentication is written to the communication log
// (method, full URL, every header in the order it arrived, decoded body). POST
// bodies are handed to the upload service. The response is always the content
// of the configured response file, read from disk on every request so it can be
// edited while the listener runs.
//
// # HTTP Endpoints
//
//   - ANY /{prefix}/* : Logs the request and returns the response file.
package endpoint
