// Ssdpd runs UPnP devices and discovery clients on one shared SSDP channel.
//
// Advertised devices and the discovery client share a single multicast
// socket on port 1900. The serve command runs them until interrupted and
// exposes a status server; the other commands run one-shot searches,
// introspect discovered devices, or watch the network live.
//
// Usage:
//
//	ssdpd [command] [flags]
//
// See 'ssdpd --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/muurk/ssdpd/internal/config"
	"github.com/muurk/ssdpd/internal/logging"
	"github.com/muurk/ssdpd/internal/version"
)

func main() {
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
	envFile    string
)

// cfg is loaded before every command runs
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ssdpd",
	Short: "Shared SSDP discovery engine",
	Long: `ssdpd advertises UPnP root devices and discovers devices on the local
network, with every participant sharing one SSDP multicast channel.

Devices to advertise are read from the configuration file
(see 'ssdpd config path'). Settings can be overridden from the environment
with the SSDPD_ prefix, or from a .env file in the working directory.`,
	Version:           version.Full(),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default is the XDG config path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the configuration")

	rootCmd.AddCommand(versionCmd)
}

// setup loads the environment file and configuration and starts logging
func setup(cmd *cobra.Command, _ []string) error {
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	if configPath != "" {
		if err := os.Setenv(config.PathEnvVar, configPath); err != nil {
			return fmt.Errorf("failed to set config path: %w", err)
		}
	}

	// config init must work when the existing file is broken
	if cmd.Annotations["skipConfig"] == "" {
		var err error
		cfg, err = config.Reload()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	level := logLevel
	if level == "" && cfg != nil && cmd.Name() == "serve" {
		level = cfg.LogLevel
	}
	return logging.Initialize(level)
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{"skipConfig": "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ssdpd %s\n", version.Full())
	},
}
