// Package config provides configuration management for the stub server.
//
// It utilizes Viper for loading the JSON settings file (external_setting_file.json by
// default), environment variables and an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: listener scheme, host, port, path, authentication and response file
//   - Storage: upload directory and the optional bucket mirror
//   - Log: logging level, format and the communication log file
//   - Database: the optional upload journal
//
// # Snapshots
//
// Manager.Load re-reads the file on every call and returns a fresh *Config that is never
// mutated. The listener binds from one snapshot and re-reads another per request, so
// credential changes apply without a restart while address changes do not.
//
// # Usage
//
//	mgr := config.NewManager(config.DefaultFile)
//	cfg, err := mgr.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
