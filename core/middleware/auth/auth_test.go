package auth

import (
	"encoding/base64"
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"stub-server/core/config"
	"stub-server/core/server"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func basic(s string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(s))
}

func TestValidate(t *testing.T) {
	policy := Policy{Kind: Basic, User: "u", Password: "p"}

	tests := []struct {
		name   string
		header string
		policy Policy
		want   Decision
	}{
		{"Match", "Basic dTpw", policy, Allowed},
		{"WrongPassword", "Basic dTp3", policy, Denied},
		{"LowerCaseScheme", "basic dTpw", policy, Allowed},
		{"PaddedCredentials", "Basic   dTpw  ", policy, Allowed},
		{"MissingHeader", "", policy, Denied},
		{"BearerScheme", "Bearer dTpw", policy, Denied},
		{"NotBase64", "Basic ***", policy, Denied},
		{"NoColon", basic("up"), policy, Denied},
		{"EmptyUser", basic(":p"), policy, Denied},
		{"UserIsCaseSensitive", basic("U:p"), policy, Denied},
		{"PasswordWithColon", basic("u:p:q"), Policy{Kind: Basic, User: "u", Password: "p:q"}, Allowed},
		{"InvalidUTF8", "Basic " + base64.StdEncoding.EncodeToString([]byte{0xff, ':', 'p'}), policy, Denied},
		{"EmptyExpectedPassword", basic("u:"), Policy{Kind: Basic, User: "u"}, Denied},
		{"EmptyExpectedUser", basic(":p"), Policy{Kind: Basic, Password: "p"}, Denied},
		{"AnonymousWithoutHeader", "", Policy{Kind: Anonymous}, Allowed},
		{"AnonymousWithHeader", "Basic dTp3", Policy{Kind: Anonymous}, Allowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.header, tt.policy))
		})
	}
}

func TestPolicyFrom(t *testing.T) {
	p := PolicyFrom(server.Config{AuthenticationMethod: "Basic", User: "u", Password: "p"})
	assert.Equal(t, Policy{Kind: Basic, User: "u", Password: "p"}, p)
	assert.Equal(t, "Basic", p.Kind.String())

	p = PolicyFrom(server.Config{AuthenticationMethod: "Windows", User: "u", Password: "p"})
	assert.Equal(t, Anonymous, p.Kind)
	assert.Equal(t, "Anonymous", p.Kind.String())
}

// rotatingLoader returns the next configured snapshot on each Load.
type rotatingLoader struct {
	snaps []*config.Config
	calls atomic.Int32
}

func (r *rotatingLoader) Load() (*config.Config, error) {
	i := int(r.calls.Add(1)) - 1
	if i >= len(r.snaps) {
		i = len(r.snaps) - 1
	}
	return r.snaps[i], nil
}

type failingLoader struct{}

func (failingLoader) Load() (*config.Config, error) { return nil, assert.AnError }

func snapshot(method, user, password string) *config.Config {
	cfg := config.Defaults()
	cfg.Server.AuthenticationMethod = method
	cfg.Server.User = user
	cfg.Server.Password = password
	cfg.Server.Realm = "stub-server"
	return cfg
}

func setupApp(source Loader) (*fiber.App, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	app := fiber.New()
	app.Use(New(Config{Source: source, Logger: zap.New(core)}))
	app.All("/*", func(c *fiber.Ctx) error {
		if Snapshot(c) == nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString("handled")
	})
	return app, logs
}

func TestMiddleware(t *testing.T) {
	t.Run("Allowed", func(t *testing.T) {
		app, _ := setupApp(&rotatingLoader{snaps: []*config.Config{snapshot("Basic", "u", "p")}})

		req := httptest.NewRequest("GET", "/api/x", nil)
		req.Header.Set("Authorization", "Basic dTpw")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "handled", string(body))
	})

	t.Run("DeniedWritesChallenge", func(t *testing.T) {
		app, logs := setupApp(&rotatingLoader{snaps: []*config.Config{snapshot("Basic", "u", "p")}})

		req := httptest.NewRequest("POST", "/api/x", nil)
		req.Header.Set("Authorization", "Basic dTp3")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
		assert.Equal(t, `Basic realm="stub-server", charset="UTF-8"`, resp.Header.Get("WWW-Authenticate"))
		assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

		body, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, string(body))
		assert.Equal(t, 1, logs.FilterMessage("Request rejected").Len())
	})

	t.Run("EmptyCredentialsNeverAccept", func(t *testing.T) {
		app, _ := setupApp(&rotatingLoader{snaps: []*config.Config{snapshot("Basic", "", "")}})

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", basic(":"))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("AnonymousIgnoresHeader", func(t *testing.T) {
		app, _ := setupApp(&rotatingLoader{snaps: []*config.Config{snapshot("Anonymous", "", "")}})

		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("CredentialRotationAppliesPerRequest", func(t *testing.T) {
		source := &rotatingLoader{snaps: []*config.Config{
			snapshot("Basic", "u", "p"),
			snapshot("Basic", "u", "rotated"),
		}}
		app, _ := setupApp(source)

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Basic dTpw")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		req = httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Basic dTpw")
		resp, err = app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("LoadFailureIsAnError", func(t *testing.T) {
		app, _ := setupApp(failingLoader{})

		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode)
	})
}
