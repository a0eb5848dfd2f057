package loader

import (
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
)

// Feature is a module that mounts its routes on a router.
type Feature interface {
	Name() string
	IsEnabled() bool
	Load(router fiber.Router) error
}

// Manager keeps the registered features.
type Manager struct {
	mu       sync.RWMutex
	features []Feature
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds f to the registry.
func (m *Manager) Register(f Feature) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.features = append(m.features, f)
}

// Features returns the registered features in registration order.
func (m *Manager) Features() []Feature {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Feature(nil), m.features...)
}

// LoadAll mounts every enabled feature on router and stops at the first failure.
func (m *Manager) LoadAll(router fiber.Router) error {
	for _, f := range m.Features() {
		if !f.IsEnabled() {
			continue
		}
		if err := f.Load(router); err != nil {
			return fmt.Errorf("failed to load feature %s: %w", f.Name(), err)
		}
	}
	return nil
}
