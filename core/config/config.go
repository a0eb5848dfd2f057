package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"stub-server/core/database"
	"stub-server/core/logger"
	"stub-server/core/server"
	"stub-server/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultFile is the settings file read when no other path is given.
const DefaultFile = "external_setting_file.json"

// Config holds all configuration for the application.
// A *Config returned by Load is a snapshot: it is never mutated afterwards.
type Config struct {
	// Server holds configuration for the HTTP listener.
	Server server.Config `mapstructure:"server"`
	// Storage holds the upload directory and the optional bucket mirror.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the optional upload journal.
	Database database.Config `mapstructure:"database"`
}

// Service loads and saves configuration snapshots.
type Service interface {
	// Load reads a fresh snapshot.
	Load() (*Config, error)
	// Save persists cfg and remembers it as the current snapshot.
	Save(cfg *Config) error
	// ExistsConfigDifference reports whether cfg differs from the current snapshot.
	ExistsConfigDifference(cfg *Config) bool
}

// Manager is the file-backed Service.
type Manager struct {
	filePath string
	envPath  string
	envOnce  sync.Once

	mu      sync.RWMutex
	current *Config
}

// NewManager creates a Manager for the given settings file.
// An optional .env file next to the working directory is applied once, on first Load.
func NewManager(filePath string) *Manager {
	if filePath == "" {
		filePath = DefaultFile
	}
	return &Manager{filePath: filePath, envPath: ".env"}
}

// Path returns the settings file path.
func (m *Manager) Path() string {
	return m.filePath
}

// Load reads the settings file, applies environment overrides and returns a snapshot.
func (m *Manager) Load() (*Config, error) {
	m.envOnce.Do(func() {
		// Ignore error if file doesn't exist (e.g. production)
		_ = godotenv.Overload(m.envPath)
	})

	if _, err := os.Stat(m.filePath); err != nil {
		return nil, fmt.Errorf("settings file %s: %w", m.filePath, err)
	}

	v := newViper()
	v.SetConfigFile(m.filePath)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", m.filePath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode settings file %s: %w", m.filePath, err)
	}

	m.mu.Lock()
	snapshot := cfg
	m.current = &snapshot
	m.mu.Unlock()

	return &cfg, nil
}

// Save writes cfg as indented JSON.
func (m *Manager) Save(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	v := viper.New()
	setValues(v, *cfg, "")
	v.SetConfigType("json")
	if err := v.WriteConfigAs(m.filePath); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", m.filePath, err)
	}

	m.mu.Lock()
	snapshot := *cfg
	m.current = &snapshot
	m.mu.Unlock()
	return nil
}

// ExistsConfigDifference reports whether cfg differs from the last loaded or saved snapshot.
func (m *Manager) ExistsConfigDifference(cfg *Config) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil || cfg == nil {
		return m.current != cfg
	}
	return *m.current != *cfg
}

// Defaults returns a Config holding only the `default` tag values.
func Defaults() *Config {
	v := newViper()
	var cfg Config
	// Defaults are plain strings; a decode failure means a broken tag.
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: invalid default tag: %v", err))
	}
	return &cfg
}

// Apply returns a copy of cfg with the dotted key (e.g. server.port_no) set to value.
func Apply(cfg *Config, key, value string) (*Config, error) {
	v := viper.New()
	setValues(v, *cfg, "")

	key = strings.ToLower(key)
	if !v.IsSet(key) {
		return nil, fmt.Errorf("unknown setting %q", key)
	}
	v.Set(key, value)

	var out Config
	if err := v.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return &out, nil
}

// Settings returns cfg as a nested map keyed like the settings file.
func Settings(cfg *Config) map[string]any {
	v := viper.New()
	setValues(v, *cfg, "")
	return v.AllSettings()
}

// Keys lists every dotted setting key.
func Keys() []string {
	return newViper().AllKeys()
}

func newViper() *viper.Viper {
	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT_NO -> server.port_no)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	walk(reflect.ValueOf(iface), prefix, func(key string, field reflect.StructField, _ reflect.Value) {
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	})
}

// setValues stores every field of iface in v under its dotted key.
func setValues(v *viper.Viper, iface any, prefix string) {
	walk(reflect.ValueOf(iface), prefix, func(key string, _ reflect.StructField, val reflect.Value) {
		v.Set(key, val.Interface())
	})
}

func walk(val reflect.Value, prefix string, fn func(key string, field reflect.StructField, val reflect.Value)) {
	// If it's a pointer, get the element
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			walk(val.Field(i), key, fn)
			continue
		}

		fn(key, field, val.Field(i))
	}
}
