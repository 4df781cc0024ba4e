// Package cmd wires the command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/comingsoon/cmd/config"
	"github.com/tphakala/comingsoon/cmd/notify"
	"github.com/tphakala/comingsoon/cmd/serve"
	"github.com/tphakala/comingsoon/internal/conf"
	"github.com/tphakala/comingsoon/internal/logger"
)

// RootCommand creates the root command. settings is filled from the config
// file, environment and flags before any subcommand runs.
func RootCommand(settings *conf.Settings) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "comingsoon",
		Short:         "Coming-soon landing page with email signup",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       settings.Version,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config.yaml (default: search standard locations)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		panic(fmt.Sprintf("error binding debug flag: %v", err))
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		config.Command(settings),
		notify.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			viper.SetConfigFile(configFile)
		}
		return initialize(settings)
	}

	return rootCmd
}

// initialize loads configuration and installs the global logger.
func initialize(settings *conf.Settings) error {
	version, buildDate := settings.Version, settings.BuildDate

	loaded, err := conf.Load()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	*settings = *loaded
	settings.Version, settings.BuildDate = version, buildDate

	central, err := logger.NewCentralLogger(settings.LoggingConfig())
	if err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}
	logger.SetGlobal(central)

	return nil
}
