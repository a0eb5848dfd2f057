package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"strings"

	"stub-server/feature/upload"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
)

// NotFoundBody is returned when the response file does not exist.
var NotFoundBody = []byte(`{"error":"response.json file not found."}`)

// EmptyBody is logged in place of a request without a body.
const EmptyBody = "none"

// Uploader persists request bodies.
type Uploader interface {
	Store(ctx context.Context, rawURL, body, dir string) (upload.Record, error)
}

// Service holds the request pipeline steps that do not depend on fiber.
type Service struct {
	uploads Uploader
	logger  *zap.Logger
}

// NewService creates a new endpoint service.
func NewService(uploads Uploader, logger *zap.Logger) *Service {
	return &Service{
		uploads: uploads,
		logger:  logger,
	}
}

// Response returns the bytes of the response file at path.
// A missing file yields NotFoundBody; any other read failure is returned.
func (s *Service) Response(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NotFoundBody, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read response file %s: %w", path, err)
	}
	return data, nil
}

// Store persists body for the request URL into dir.
func (s *Service) Store(ctx context.Context, rawURL, body, dir string) (upload.Record, error) {
	if s.uploads == nil {
		return upload.Record{}, nil
	}
	return s.uploads.Store(ctx, rawURL, body, dir)
}

// DecodeBody converts raw into a string using the charset declared in contentType.
// An absent or unknown charset is treated as UTF-8.
func DecodeBody(raw []byte, contentType string) string {
	if len(raw) == 0 {
		return ""
	}
	enc, err := htmlindex.Get(Charset(contentType))
	if err != nil {
		enc, _ = htmlindex.Get("utf-8")
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// Charset returns the charset parameter of a Content-Type value, defaulting to utf-8.
func Charset(contentType string) string {
	if contentType == "" {
		return "utf-8"
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "utf-8"
	}
	if cs := strings.TrimSpace(params["charset"]); cs != "" {
		return cs
	}
	return "utf-8"
}
