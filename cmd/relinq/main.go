package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/relinq/cmd/relinq/commands"
	"github.com/systmms/relinq/internal/config"
	"github.com/systmms/relinq/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "relinq",
		Short: "Scoped secret access with guarded teardown",
		Long: `relinq fetches secrets and certificates from your vault(s) through
clients whose lifetime is guarded: concurrent reads borrow the client
through scopes, and teardown waits for them (bounded by a timeout)
before the client is released.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			logger := logging.New(debug, noColor)

			cfg.Path = configFile
			cfg.Logger = logger
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "relinq.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewGetCommand(cfg),
		commands.NewCertCommand(cfg),
		commands.NewTokenCommand(cfg),
		commands.NewStoresCommand(cfg),
	)

	return rootCmd.Execute()
}
