// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments (development vs production)
// and integrates with the Fiber web framework.
//
// # Communication Log
//
// When Config.File is set, every entry is tee'd into a plain-text file rotated by
// lumberjack (10 MB, 3 backups by default). This file is the communication log the
// `logs` command prints and follows.
//
// # Context Awareness
//
// The WithRayID helper extracts the RayID from a Fiber context and attaches it to the
// log entry, so all lines of one request can be correlated.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", File: "logs/Communication.log"})
//	log.Info("Server started")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
