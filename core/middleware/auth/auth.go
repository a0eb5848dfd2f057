package auth

import (
	"fmt"

	"stub-server/core/config"
	"stub-server/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const snapshotKey = "config_snapshot"

// UnauthorizedBody is the response body of a rejected request.
var UnauthorizedBody = []byte(`{"error":"Unauthorized"}`)

// Loader supplies the live configuration snapshot.
type Loader interface {
	Load() (*config.Config, error)
}

// Config configures the middleware.
type Config struct {
	// Source is consulted on every request so credentials can rotate without a restart.
	Source Loader
	// Logger receives one line per rejected request.
	Logger *zap.Logger
}

// New creates the authentication middleware.
//
// It loads the live snapshot, stores it for later handlers (see Snapshot) and
// answers 401 with a Basic challenge when the request is denied.
func New(cfg Config) fiber.Handler {
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		snap, err := cfg.Source.Load()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		c.Locals(snapshotKey, snap)

		policy := PolicyFrom(snap.Server)
		if Validate(c.Get(fiber.HeaderAuthorization), policy) == Allowed {
			return c.Next()
		}

		logger.WithRayID(l, c).Info("Request rejected",
			zap.String("method", c.Method()),
			zap.String("url", c.OriginalURL()),
			zap.Stringer("policy", policy.Kind),
		)

		c.Set(fiber.HeaderWWWAuthenticate, Challenge(snap.Server.Realm))
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.Status(fiber.StatusUnauthorized).Send(UnauthorizedBody)
	}
}

// Challenge returns the WWW-Authenticate value for realm.
func Challenge(realm string) string {
	return fmt.Sprintf(`Basic realm="%s", charset="UTF-8"`, realm)
}

// Snapshot returns the configuration the middleware loaded for this request.
func Snapshot(c *fiber.Ctx) *config.Config {
	if snap, ok := c.Locals(snapshotKey).(*config.Config); ok {
		return snap
	}
	return nil
}
