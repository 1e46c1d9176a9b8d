package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/ssdpd/internal/config"
	"github.com/muurk/ssdpd/internal/ui"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration with an example device",
	Long: `Write a configuration file with default settings and one example device,
a virtual binary light with a SwitchPower service.

An existing file is only replaced after confirmation, or with --force.`,
	Annotations: map[string]string{"skipConfig": "true"},
	RunE:        runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the configuration file location",
	Annotations: map[string]string{"skipConfig": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after environment overrides have been applied,
as YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Replace an existing file without asking")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	overwrite := configForce
	if _, err := os.Stat(path); err == nil && !overwrite {
		if !p.Confirm(cmd.InOrStdin(), "Replace configuration", path+" already exists and will be overwritten") {
			return nil
		}
		overwrite = true
	}

	created, err := config.CreateDefaultConfig(path, overwrite)
	if err != nil {
		p.PrintError("Could not write configuration", err)
		return err
	}

	p.PrintSuccess("Configuration written",
		ui.Param{Key: "Path", Value: path},
		ui.Param{Key: "Devices", Value: strconv.Itoa(len(created.Devices))},
		ui.Param{Key: "Device UUID", Value: created.Devices[0].UUID},
	)
	p.Println(ui.HintItemStyle.Render("  Run 'ssdpd serve' to advertise it."))
	return nil
}
