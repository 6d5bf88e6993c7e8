package main

import (
	"fmt"
	"os"

	"github.com/obentoo/bvc/internal/common/config"
	"github.com/obentoo/bvc/internal/common/logger"
	"github.com/obentoo/bvc/internal/common/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configInitForce overwrites an existing configuration file
var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage bvc configuration",
	Long: `Show or create the bvc configuration file.

The configuration is read from $XDG_CONFIG_HOME/bvc/config.yaml, then
~/.bvc/config.yaml. Command line flags override its settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	Run:   runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file holding the defaults",
	Args:  cobra.NoArgs,
	Run:   runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing configuration file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	path := configPath
	if path == "" {
		path, _ = config.FindConfigPath()
	}
	if _, err := os.Stat(path); err != nil {
		path += " (not found, using defaults)"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		logger.Error("encoding config: %v", err)
		os.Exit(1)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, data)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
	}

	if err := initConfig(path, configInitForce); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// initConfig writes the default configuration to path, keeping an existing
// file unless force is set.
func initConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		output.PrintWarning("Config already exists at: %s", path)
		output.PrintInfo("Use --force to overwrite it")
		return nil
	}

	if err := config.Default().SaveTo(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	output.PrintSuccess("Configuration saved to: %s", path)
	return nil
}
