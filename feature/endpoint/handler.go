package endpoint

import (
	"errors"
	"fmt"

	"stub-server/core/logger"
	"stub-server/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles every request under the prefix.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the catch-all route on router.
func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.All("/", h.HandleRequest)
	router.All("/*", h.HandleRequest)
}

// HandleRequest logs the request, stores POST bodies and returns the response file.
// @Summary Stub endpoint
// @Description Logs the request and returns the configured JSON payload. POST bodies are saved as {command}_{timestamp}.json under the upload directory.
// @Tags endpoint
// @Accept json
// @Produce json
// @Param path path string true "Any path below the prefix"
// @Success 200 {object} map[string]interface{} "Content of the response file"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Security BasicAuth
// @Router /{path} [post]
// @Router /{path} [get]
func (h *Handler) HandleRequest(c *fiber.Ctx) error {
	snap := auth.Snapshot(c)
	if snap == nil {
		return errors.New("request has no settings snapshot")
	}
	l := logger.WithRayID(h.service.logger, c)

	url := c.BaseURL() + c.OriginalURL()
	body := DecodeBody(c.Body(), c.Get(fiber.HeaderContentType))
	logged := body
	if logged == "" {
		logged = EmptyBody
	}
	l.Info("Request received",
		zap.String("method", c.Method()),
		zap.String("url", url),
		zap.Array("headers", RequestHeaders(c.Request())),
		zap.String("body", logged),
	)

	if c.Method() == fiber.MethodPost {
		if _, err := h.service.Store(c.Context(), c.OriginalURL(), body, snap.Storage.UploadDirectoryPath); err != nil {
			l.Error("Failed to persist upload", zap.String("url", url), zap.Error(err))
		}
	}

	data, err := h.service.Response(snap.Server.ResponseFile)
	if err != nil {
		return fmt.Errorf("failed to build response: %w", err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Status(fiber.StatusOK).Send(data)
}
