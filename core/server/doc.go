// Package server holds the HTTP listener configuration and address derivation.
//
// The Config struct mirrors the listener section of the settings file: scheme,
// host, port, path prefix, authentication method and credentials, plus the
// static response file served for every request.
//
// # Address
//
// Config.Address validates the bind-time fields and returns an Address, the
// value a running listener is bound to. Malformed fields are reported as a
// *ConfigurationError naming the offending key.
//
//	addr, err := cfg.Server.Address()
//	if err != nil {
//	    return err
//	}
//	fmt.Println(addr.Prefix()) // http://localhost:8080/api/
package server
