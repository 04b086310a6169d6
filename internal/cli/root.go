// Package cli provides the seismicview command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"seismicview/pkg/config"
)

// Version is set at build time.
var Version = "0.1.0"

// configKey is used to store the loaded config in the command context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile  string
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:   "seismicview",
		Short: "Interactive slicing and navigation for seismic volumes",
		Long: `seismicview drives the slicing core of a 3D seismic viewer without a window:
it inspects volumes, exports axis-aligned slices as images and replays
recorded pointer and key sessions against the slice, interaction and
camera state.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "init" {
				return nil
			}

			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("log-level") && cfg.Output.LogLevel != "" {
				if level, err = logrus.ParseLevel(cfg.Output.LogLevel); err != nil {
					return fmt.Errorf("output.logLevel: %w", err)
				}
			}
			logrus.SetLevel(level)

			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "seismicview.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewInspectCommand())
	rootCmd.AddCommand(NewExportCommand())
	rootCmd.AddCommand(NewReplayCommand())

	return rootCmd
}

// configFrom returns the config loaded by the root command, or the
// defaults when a subcommand runs on its own.
func configFrom(cmd *cobra.Command) *config.Config {
	if ctx := cmd.Context(); ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
			return cfg
		}
	}
	return config.DefaultConfig()
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Example: `  # Create seismicview.yaml in the current directory
  seismicview init

  # Overwrite an existing file
  seismicview init viewer.yaml --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "seismicview.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.CreateDefaultConfigFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
