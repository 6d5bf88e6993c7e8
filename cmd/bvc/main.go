package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/obentoo/bvc/internal/common/config"
	"github.com/obentoo/bvc/internal/common/logger"
	"github.com/obentoo/bvc/internal/common/output"
	"github.com/spf13/cobra"
)

var (
	verbosity  int
	quietness  int
	noColor    bool
	logFile    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "bvc",
	Short: "Buildout versions checker",
	Long: `Tools for the [versions] section of buildout files: check pinned
packages for updates on a package index, find pins with no installed egg,
and (re)indent buildout files.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbosity(verbosity, quietness)
		if noColor {
			output.NoColor()
		}
		if cmd.Flags().Changed("log-file") {
			if err := logger.EnableFileLogging(strings.TrimSpace(logFile)); err != nil {
				logger.Error("%v", err)
				os.Exit(1)
			}
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (specify multiple times for more)")
	rootCmd.PersistentFlags().CountVarP(&quietness, "quiet", "q", "Decrease verbosity (specify multiple times for more)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write every message to a log file, --log-file=PATH to choose it (default: $XDG_STATE_HOME/bvc/logs/bvc.log)")
	rootCmd.PersistentFlags().Lookup("log-file").NoOptDefVal = " "
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: $XDG_CONFIG_HOME/bvc/config.yaml)")
}

// loadConfig reads the configuration file selected by --config or the
// default locations. It exits on invalid configuration.
func loadConfig() *config.Config {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}
	return cfg
}

// reporter prints reports on stdout unless warnings are silenced
func reporter() *output.Reporter {
	return output.NewReporter(os.Stdout, logger.Enabled(logger.LevelWarn))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
