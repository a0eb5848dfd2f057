package control

import (
	"testing"

	"stub-server/core/config"
	"stub-server/core/listener"
	"stub-server/core/server"
	"stub-server/feature/control/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func setup() (*Controller, *mocks.Server, *mocks.Settings, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	srv := new(mocks.Server)
	settings := new(mocks.Settings)
	return NewController(srv, settings, zap.New(core)), srv, settings, logs
}

func TestController_Start(t *testing.T) {
	c, srv, _, logs := setup()
	srv.On("Start").Return(nil).Once()

	msg, err := c.Start()
	require.NoError(t, err)
	assert.Equal(t, MsgStarted, msg)
	assert.Equal(t, 1, logs.FilterMessage("starting server").Len())
	srv.AssertExpectations(t)
}

func TestController_StartFailure(t *testing.T) {
	c, srv, _, logs := setup()
	srv.On("Start").Return(&listener.BindError{Addr: "localhost:80", Err: assert.AnError})

	msg, err := c.Start()
	assert.Equal(t, MsgStartFailed, msg)
	var bindErr *listener.BindError
	assert.ErrorAs(t, err, &bindErr)

	failed := logs.FilterMessage(MsgStartFailed).All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
}

func TestController_Stop(t *testing.T) {
	c, srv, _, logs := setup()
	srv.On("Stop").Return(nil)

	msg, err := c.Stop()
	require.NoError(t, err)
	assert.Equal(t, MsgStopped, msg)
	assert.Equal(t, 1, logs.FilterMessage("stopping server").Len())
}

func TestController_Restart(t *testing.T) {
	c, srv, _, _ := setup()
	srv.On("Stop").Return(nil).Once()
	srv.On("Start").Return(nil).Once()

	msg, err := c.Restart()
	require.NoError(t, err)
	assert.Equal(t, MsgStarted, msg)
	srv.AssertExpectations(t)

	c, srv, _, _ = setup()
	srv.On("Stop").Return(assert.AnError)
	msg, err = c.Restart()
	assert.Error(t, err)
	assert.Equal(t, MsgStopFailed, msg)
	srv.AssertNotCalled(t, "Start")
}

func TestController_Status(t *testing.T) {
	c, srv, _, _ := setup()
	srv.On("State").Return(listener.Listening).Once()
	srv.On("Address").Return(server.Address{Scheme: "http", Host: "localhost", Port: 8080, Path: "api"}, true).Once()
	assert.Equal(t, "Server is listening on http://localhost:8080/api/.", c.Status())

	srv.On("State").Return(listener.Stopped).Once()
	srv.On("Address").Return(server.Address{}, false).Once()
	assert.Equal(t, "Server is stopped.", c.Status())
}

func TestController_Save(t *testing.T) {
	cfg := config.Defaults()

	t.Run("Unchanged", func(t *testing.T) {
		c, _, settings, _ := setup()
		settings.On("ExistsConfigDifference", cfg).Return(false)

		msg, err := c.Save(cfg)
		require.NoError(t, err)
		assert.Equal(t, MsgNoChanges, msg)
		settings.AssertNotCalled(t, "Save", mock.Anything)
	})

	t.Run("Changed", func(t *testing.T) {
		c, _, settings, _ := setup()
		settings.On("ExistsConfigDifference", cfg).Return(true)
		settings.On("Save", cfg).Return(nil)

		msg, err := c.Save(cfg)
		require.NoError(t, err)
		assert.Equal(t, MsgSaved, msg)
		settings.AssertExpectations(t)
	})

	t.Run("Failure", func(t *testing.T) {
		c, _, settings, logs := setup()
		settings.On("ExistsConfigDifference", cfg).Return(true)
		settings.On("Save", cfg).Return(assert.AnError)

		msg, err := c.Save(cfg)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, MsgSaveFailed, msg)
		assert.Equal(t, 1, logs.FilterMessage(MsgSaveFailed).Len())
	})
}

func TestController_Load(t *testing.T) {
	c, _, settings, _ := setup()
	settings.On("Load").Return(config.Defaults(), nil).Once()

	cfg, msg, err := c.Load()
	require.NoError(t, err)
	assert.Empty(t, msg)
	assert.Equal(t, "8080", cfg.Server.Port)

	settings.On("Load").Return(nil, assert.AnError).Once()
	_, msg, err = c.Load()
	assert.Error(t, err)
	assert.Equal(t, MsgLoadFailed, msg)
}
