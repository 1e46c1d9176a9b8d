package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	appName    = "ssdpd"
	configFile = "config.yaml"

	// EnvPrefix prefixes every environment override (e.g., SSDPD_CLIENT_MX)
	EnvPrefix = "SSDPD"

	// PathEnvVar overrides the configuration file location
	PathEnvVar = "SSDPD_CONFIG"
)

var (
	// Global config instance (loaded lazily, guarded by globalMutex)
	globalMutex     sync.Mutex
	globalConfig    *Config
	globalConfigErr error
	globalLoaded    bool

	// Mutex for thread-safe file operations
	fileMutex sync.Mutex
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/ssdpd or $HOME/.config/ssdpd
//   - macOS: $HOME/.config/ssdpd (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\ssdpd
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			// Fallback to USERPROFILE\AppData\Local if LOCALAPPDATA not set
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file. SSDPD_CONFIG
// takes precedence over the platform directory.
func GetConfigPath() (string, error) {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load loads the configuration from the default path and applies environment
// overrides. A missing file yields the defaults.
// Thread-safe - multiple calls will return the same instance.
func Load() (*Config, error) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	if !globalLoaded {
		globalConfig, globalConfigErr = loadFromDisk()
		globalLoaded = true
	}
	return globalConfig, globalConfigErr
}

// Reload discards the cached configuration and loads it again.
func Reload() (*Config, error) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalConfig, globalConfigErr = loadFromDisk()
	globalLoaded = true
	return globalConfig, globalConfigErr
}

func loadFromDisk() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFile(configPath)
}

// LoadFile loads the configuration at path and applies environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Config doesn't exist - keep defaults
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the advertised devices.
func (c *Config) Validate() error {
	for i, d := range c.Devices {
		if d.FriendlyName == "" {
			return fmt.Errorf("devices[%d]: friendly_name is required", i)
		}
		if d.DeviceType == "" {
			return fmt.Errorf("devices[%d] (%s): device_type is required", i, d.FriendlyName)
		}
		if d.UUID != "" {
			if _, err := uuid.Parse(trimUUIDPrefix(d.UUID)); err != nil {
				return fmt.Errorf("devices[%d] (%s): invalid uuid %q", i, d.FriendlyName, d.UUID)
			}
		}
		for j, s := range d.Services {
			if s.Type == "" {
				return fmt.Errorf("devices[%d].services[%d]: type is required", i, j)
			}
		}
	}
	return nil
}

// EnsureUUIDs assigns a UUID to every device without one so advertised UDNs
// survive restarts once the file is saved. Reports whether anything changed.
func (c *Config) EnsureUUIDs() bool {
	changed := false
	for i := range c.Devices {
		if c.Devices[i].UUID == "" {
			c.Devices[i].UUID = uuid.NewString()
			changed = true
		}
	}
	return changed
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return c.SaveTo(configPath)
}

// SaveTo writes the configuration to path.
// Performs an atomic write to prevent corruption on crash.
func (c *Config) SaveTo(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	// Create directory with user-only permissions (0700)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# ssdpd configuration file
#
# Every scalar setting can be overridden from the environment with the
# SSDPD_ prefix, e.g. SSDPD_CLIENT_SEARCH_INTERVAL=1m.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// Clean up temp file on error
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// CreateDefaultConfig writes a default configuration with one example device
// to path and returns it. An existing file is only replaced when overwrite is set.
func CreateDefaultConfig(path string, overwrite bool) (*Config, error) {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("config file already exists: %s", path)
		}
	}

	cfg := NewConfig()
	cfg.Devices = []DeviceConfig{ExampleDevice()}
	cfg.EnsureUUIDs()

	if err := cfg.SaveTo(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func trimUUIDPrefix(id string) string {
	if len(id) >= 5 && (id[:5] == "uuid:" || id[:5] == "UUID:") {
		return id[5:]
	}
	return id
}
