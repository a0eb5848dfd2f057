package mocks

import (
	"stub-server/core/config"
	"stub-server/core/listener"
	"stub-server/core/server"

	"github.com/stretchr/testify/mock"
)

// Server is a mock implementation of control.Server
type Server struct {
	mock.Mock
}

func (m *Server) Start() error {
	args := m.Called()
	return args.Error(0)
}

func (m *Server) Stop() error {
	args := m.Called()
	return args.Error(0)
}

func (m *Server) State() listener.State {
	args := m.Called()
	return args.Get(0).(listener.State)
}

func (m *Server) Address() (server.Address, bool) {
	args := m.Called()
	return args.Get(0).(server.Address), args.Bool(1)
}

// Settings is a mock implementation of config.Service
type Settings struct {
	mock.Mock
}

func (m *Settings) Load() (*config.Config, error) {
	args := m.Called()
	cfg, _ := args.Get(0).(*config.Config)
	return cfg, args.Error(1)
}

func (m *Settings) Save(cfg *config.Config) error {
	args := m.Called(cfg)
	return args.Error(0)
}

func (m *Settings) ExistsConfigDifference(cfg *config.Config) bool {
	args := m.Called(cfg)
	return args.Bool(0)
}
