// Package config implements the "config" command.
package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/comingsoon/internal/conf"
)

const redacted = "[REDACTED]"

// Command creates the config command and its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and write configuration",
	}

	cmd.AddCommand(showCommand(settings), defaultCommand(), saveCommand(settings), pathCommand())
	return cmd
}

func showCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(Redacted(settings))
			if err != nil {
				return fmt.Errorf("error marshaling settings: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func defaultCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := conf.DefaultConfigYAML()
			if err != nil {
				return fmt.Errorf("error reading default config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func saveCommand(settings *conf.Settings) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Write the effective configuration to a file",
		Long: `Write the effective configuration, including values from environment
variables and flags, to a YAML file. Secrets are written in clear text.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.SaveYAMLConfig(output, settings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "config.yaml", "Destination file")
	return cmd
}

func pathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the path of the configuration file in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.ConfigFileUsed()
			if path == "" {
				found, err := conf.FindConfigFile()
				if err != nil {
					return err
				}
				path = found
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// Redacted returns a copy of settings with the session secret and the
// Sentry DSN masked.
func Redacted(settings *conf.Settings) *conf.Settings {
	out := *settings
	if out.Session.Secret != "" {
		out.Session.Secret = redacted
	}
	if out.Sentry.DSN != "" {
		out.Sentry.DSN = redacted
	}
	return &out
}
