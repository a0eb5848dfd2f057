package control

import (
	"fmt"

	"stub-server/core/config"
	"stub-server/core/listener"
	"stub-server/core/server"

	"go.uber.org/zap"
)

// Status messages shown to the operator.
const (
	MsgStarted      = "Server started."
	MsgStopped      = "Server stopped."
	MsgSaved        = "Settings saved."
	MsgNoChanges    = "No changes to save."
	MsgSaveFailed   = "Failed to save settings."
	MsgLoadFailed   = "Failed to load settings."
	MsgStartFailed  = "Failed to start server."
	MsgStopFailed   = "Failed to stop server."
	MsgStatusFormat = "Server is %s."
)

// Server is the listener the controller drives.
type Server interface {
	Start() error
	Stop() error
	State() listener.State
	Address() (server.Address, bool)
}

// Controller runs operator commands against a server and its settings.
type Controller struct {
	server   Server
	settings config.Service
	logger   *zap.Logger
}

// NewController creates a new controller.
func NewController(srv Server, settings config.Service, logger *zap.Logger) *Controller {
	return &Controller{
		server:   srv,
		settings: settings,
		logger:   logger,
	}
}

// Start starts the server, or restarts it when it is already listening.
func (c *Controller) Start() (string, error) {
	c.logger.Info("starting server")
	if err := c.server.Start(); err != nil {
		c.logger.Error(MsgStartFailed, zap.Error(err))
		return MsgStartFailed, err
	}
	return MsgStarted, nil
}

// Stop stops the server.
func (c *Controller) Stop() (string, error) {
	c.logger.Info("stopping server")
	if err := c.server.Stop(); err != nil {
		c.logger.Error(MsgStopFailed, zap.Error(err))
		return MsgStopFailed, err
	}
	return MsgStopped, nil
}

// Restart stops and starts the server so a new snapshot takes effect.
func (c *Controller) Restart() (string, error) {
	if msg, err := c.Stop(); err != nil {
		return msg, err
	}
	return c.Start()
}

// Status describes the server state and, while listening, its URI.
func (c *Controller) Status() string {
	state := c.server.State()
	if addr, ok := c.server.Address(); ok && state == listener.Listening {
		return fmt.Sprintf(MsgStatusFormat, fmt.Sprintf("%s on %s", state, addr.Prefix()))
	}
	return fmt.Sprintf(MsgStatusFormat, state)
}

// Load reads the current settings.
func (c *Controller) Load() (*config.Config, string, error) {
	cfg, err := c.settings.Load()
	if err != nil {
		c.logger.Error(MsgLoadFailed, zap.Error(err))
		return nil, MsgLoadFailed, err
	}
	return cfg, "", nil
}

// Save writes cfg when it differs from the current settings.
func (c *Controller) Save(cfg *config.Config) (string, error) {
	if !c.settings.ExistsConfigDifference(cfg) {
		return MsgNoChanges, nil
	}
	if err := c.settings.Save(cfg); err != nil {
		c.logger.Error(MsgSaveFailed, zap.Error(err))
		return MsgSaveFailed, err
	}
	return MsgSaved, nil
}
