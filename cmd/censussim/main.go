// Command censussim simulates a closed human population year by year and
// reports per-year cohort counts.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/mini-census/internal/config"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "censussim",
		Short: "Demographic simulation of a closed population",
		Long: `censussim generates a founder population and simulates it over many years.
People are born, graduate into adulthood, marry, have children and die;
one record of cohort sizes is produced per simulated year.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newRunCmd(),
		newRunsCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "censussim version %s\n", version)
		},
	}
}

// loadConfig reads the config file named by --config plus the environment
// and applies --log-level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

// setupLogging installs the default logger. Logs go to stderr so stdout
// carries only command output.
func setupLogging(cmd *cobra.Command, cfg *config.Config) {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
}
