// Package loader provides the plugin-like feature loading system.
//
// Features are registered once at startup and mounted on a fresh router every
// time the listener is bound, so a restart with a new path prefix simply loads
// every enabled feature again.
//
// # Feature Interface
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(router fiber.Router) error
//	}
//
// # Manager
//
// The Manager holds the registry of features. It handles:
//   - Registration of features via Register()
//   - Loading of enabled features via LoadAll(), in registration order
package loader
