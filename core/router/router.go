package router

import (
	"errors"
	"net"
	"strconv"

	"stub-server/core/loader"
	"stub-server/core/logger"
	"stub-server/core/metrics"
	"stub-server/core/middleware/auth"
	"stub-server/core/middleware/rayid"
	"stub-server/core/server"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	docs "stub-server/docs/swagger"
)

// Config wires the router.
type Config struct {
	Source   auth.Loader
	Features *loader.Manager
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Builder builds one fiber application per listener run.
type Builder struct {
	cfg Config
}

// NewBuilder creates a Builder.
func NewBuilder(cfg Config) *Builder {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Features == nil {
		cfg.Features = loader.NewManager()
	}
	return &Builder{cfg: cfg}
}

// App returns the fiber application for addr.
func (b *Builder) App(addr server.Address, settings server.Config) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:               "stub-server",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(b.cfg.Logger),
	})

	app.Use(rayid.New())
	app.Use(recover.New())
	app.Use(b.cfg.Metrics.Middleware())

	if settings.MetricsEnabled && b.cfg.Metrics != nil {
		app.Get("/metrics", b.cfg.Metrics.Handler())
	}
	if settings.SwaggerEnabled {
		docs.SwaggerInfo.Host = net.JoinHostPort(addr.Host, strconv.Itoa(addr.Port))
		docs.SwaggerInfo.BasePath = addr.RoutePrefix()
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	api := app.Group(addr.RoutePrefix(), auth.New(auth.Config{
		Source: b.cfg.Source,
		Logger: b.cfg.Logger,
	}))
	if err := b.cfg.Features.LoadAll(api); err != nil {
		return nil, err
	}
	return app, nil
}

// Handler builds the fasthttp handler for addr. Its signature matches listener.HandlerBuilder.
func (b *Builder) Handler(addr server.Address, settings server.Config) (fasthttp.RequestHandler, error) {
	app, err := b.App(addr, settings)
	if err != nil {
		return nil, err
	}
	return app.Handler(), nil
}

// ErrorHandler logs pipeline faults and answers them with 500 and a closed connection.
// fiber errors below 500 (404 outside the prefix, for instance) keep their status.
func ErrorHandler(l *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			logger.WithRayID(l, c).Error("Request pipeline failed",
				zap.String("method", c.Method()),
				zap.String("url", c.OriginalURL()),
				zap.Error(err),
			)
			c.Context().SetConnectionClose()
			message = "Internal Server Error"
		}

		return c.Status(code).JSON(fiber.Map{"error": message}, fiber.MIMEApplicationJSONCharsetUTF8)
	}
}
