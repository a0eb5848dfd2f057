// Package database opens the optional MySQL connection behind the upload journal.
//
// It wraps GORM to configure the connection from the application's configuration:
// URL-encoded credentials, connect/read/write timeouts in the DSN, a small pool,
// and a ping bounded by the same timeout.
//
// # Usage
//
//	db, err := database.Connect(ctx, cfg.Database)
//	if err != nil {
//	    logg.Warn("Upload journal disabled", zap.Error(err))
//	}
package database
