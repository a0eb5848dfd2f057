// Package control implements the operator commands of the stub server.
//
// The Controller is what the interactive console and the CLI call into: start,
// stop and restart the listener, report its status, and load or save settings.
// Every command returns a one-line status message for the operator; failures are
// also logged at error level with their detail.
package control
