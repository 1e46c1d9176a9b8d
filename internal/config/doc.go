// Package config loads and saves the ssdpd configuration file.
//
// The file is YAML and lives in the platform configuration directory:
//   - Linux: $XDG_CONFIG_HOME/ssdpd/config.yaml or $HOME/.config/ssdpd/config.yaml
//   - macOS: $HOME/.config/ssdpd/config.yaml
//   - Windows: %LOCALAPPDATA%\ssdpd\config.yaml
//
// SSDPD_CONFIG points at a different file. Scalar settings can be overridden
// from the environment with the SSDPD_ prefix (SSDPD_ENGINE_START_ROLLBACK,
// SSDPD_CLIENT_SEARCH_INTERVAL, SSDPD_SERVER_ADDR, ...). Advertised devices are
// only read from the file.
//
// # Usage Example
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if cfg.EnsureUUIDs() {
//	    // Persist generated UDNs so they survive restarts
//	    if err := cfg.Save(); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Thread Safety
//
// The global configuration uses sync.Once for safe initialization across
// goroutines. File writes are protected by a mutex and are atomic.
package config
