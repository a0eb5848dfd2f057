package endpoint

import (
	"context"
	"encoding/base64"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stub-server/core/config"
	"stub-server/core/middleware/auth"
	"stub-server/core/middleware/rayid"
	"stub-server/feature/upload"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type staticSource struct {
	cfg config.Config
}

func (s *staticSource) Load() (*config.Config, error) {
	snap := s.cfg
	return &snap, nil
}

type failingUploader struct{}

func (failingUploader) Store(_ context.Context, _, _, _ string) (upload.Record, error) {
	return upload.Record{}, assert.AnError
}

type testEnv struct {
	app       *fiber.App
	logs      *observer.ObservedLogs
	uploadDir string
	response  string
	source    *staticSource
}

func setupTestApp(t *testing.T, uploads Uploader) *testEnv {
	t.Helper()
	dir := t.TempDir()
	responsePath := filepath.Join(dir, "response.json")

	cfg := *config.Defaults()
	cfg.Server.ResponseFile = responsePath
	cfg.Storage.UploadDirectoryPath = filepath.Join(dir, "uploads")
	source := &staticSource{cfg: cfg}

	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)
	if uploads == nil {
		uploads = upload.NewService(upload.NewPersister(), log, nil)
	}

	app := fiber.New()
	app.Use(rayid.New())
	api := app.Group("/api", auth.New(auth.Config{Source: source, Logger: log}))
	require.NoError(t, NewFeature(uploads, log).Load(api))

	return &testEnv{app: app, logs: logs, uploadDir: cfg.Storage.UploadDirectoryPath, response: responsePath, source: source}
}

func readBody(t *testing.T, r io.Reader) string {
	t.Helper()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestHandleRequest_ReturnsResponseFile(t *testing.T) {
	env := setupTestApp(t, nil)
	require.NoError(t, os.WriteFile(env.response, []byte(`{"status":"ok"}`), 0o644))

	resp, err := env.app.Test(httptest.NewRequest("GET", "/api/v1/anything?q=1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, fiber.MIMEApplicationJSONCharsetUTF8, resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, `{"status":"ok"}`, readBody(t, resp.Body))

	entries := env.logs.FilterMessage("Request received").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "http://example.com/api/v1/anything?q=1", fields["url"])
	assert.Equal(t, EmptyBody, fields["body"])
	assert.NotEmpty(t, fields["ray_id"])
	assert.Contains(t, fields["headers"], "Host: example.com")
}

func TestHandleRequest_ReadsResponseFileEveryTime(t *testing.T) {
	env := setupTestApp(t, nil)

	resp, err := env.app.Test(httptest.NewRequest("GET", "/api/x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, string(NotFoundBody), readBody(t, resp.Body))

	require.NoError(t, os.WriteFile(env.response, []byte(`{"v":1}`), 0o644))
	resp, err = env.app.Test(httptest.NewRequest("GET", "/api/x", nil))
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, readBody(t, resp.Body))

	require.NoError(t, os.WriteFile(env.response, []byte(`{"v":2}`), 0o644))
	resp, err = env.app.Test(httptest.NewRequest("GET", "/api/x", nil))
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, readBody(t, resp.Body))
}

func TestHandleRequest_PostPersistsBody(t *testing.T) {
	env := setupTestApp(t, nil)
	require.NoError(t, os.WriteFile(env.response, []byte(`{}`), 0o644))

	req := httptest.NewRequest("POST", "/api/v1/resource/widget", strings.NewReader(`{"x":1}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	files, err := os.ReadDir(filepath.Join(env.uploadDir, upload.Subfolder))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0].Name(), "widget_"))

	data, err := os.ReadFile(filepath.Join(env.uploadDir, upload.Subfolder, files[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(data))

	fields := env.logs.FilterMessage("Request received").All()[0].ContextMap()
	assert.Equal(t, `{"x":1}`, fields["body"])
}

func TestHandleRequest_GetDoesNotPersist(t *testing.T) {
	env := setupTestApp(t, nil)

	_, err := env.app.Test(httptest.NewRequest("GET", "/api/widget", nil))
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(env.uploadDir, upload.Subfolder))
}

func TestHandleRequest_UploadFailureStillAnswers(t *testing.T) {
	env := setupTestApp(t, failingUploader{})
	require.NoError(t, os.WriteFile(env.response, []byte(`{"ok":1}`), 0o644))

	resp, err := env.app.Test(httptest.NewRequest("POST", "/api/widget", strings.NewReader("{}")))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"ok":1}`, readBody(t, resp.Body))
	assert.Equal(t, 1, env.logs.FilterMessage("Failed to persist upload").Len())
}

func TestHandleRequest_BasicAuth(t *testing.T) {
	env := setupTestApp(t, nil)
	env.source.cfg.Server.AuthenticationMethod = "Basic"
	env.source.cfg.Server.User = "alice"
	env.source.cfg.Server.Password = "s3cret"
	require.NoError(t, os.WriteFile(env.response, []byte(`{}`), 0o644))

	resp, err := env.app.Test(httptest.NewRequest("POST", "/api/widget", strings.NewReader("{}")))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, `Basic realm="stub-server", charset="UTF-8"`, resp.Header.Get(fiber.HeaderWWWAuthenticate))
	assert.Equal(t, 0, env.logs.FilterMessage("Request received").Len(), "denied requests are not dispatched")
	assert.NoDirExists(t, filepath.Join(env.uploadDir, upload.Subfolder))

	req := httptest.NewRequest("POST", "/api/widget", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("alice:s3cret")))
	resp, err = env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHandleRequest_PrefixRoot(t *testing.T) {
	env := setupTestApp(t, nil)

	for _, path := range []string{"/api", "/api/"} {
		resp, err := env.app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}
}

func TestHandleRequest_WithoutSnapshotFails(t *testing.T) {
	app := fiber.New()
	require.NoError(t, NewFeature(nil, zap.NewNop()).Load(app))

	resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
