// Package cli implements the workflow-server command line.
package cli

import (
	"fmt"
	"os"

	"workflow_server/config"
	"workflow_server/internal/bootstrap"
	"workflow_server/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree. Running it without a subcommand serves HTTP.
func NewRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "workflow-server",
		Short: "Turns support emails into structured tasks in a Google Sheet",
		Long: `workflow-server reads a customer-support email, extracts summary, customer
name, topic and urgency with a language model, and appends the result as a
row to a Google Sheet. Without credentials it runs in mock mode.

Examples:
  # Serve the HTTP API on $PORT (default 5000)
  workflow-server serve

  # Process one email from a file
  workflow-server process -f email.txt

  # Process stdin in mock mode
  MOCK_MODE=true workflow-server process < email.txt`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is normal outside local development.
			if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	serve := newServeCommand()
	root.AddCommand(serve, newProcessCommand(), newHealthCommand())
	root.RunE = serve.RunE

	return root
}

// Execute runs the root command.
func Execute() error {
	err := NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// loadConfig reads the environment and configures logging on the command's stderr.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	bootstrap.InitLogger(cfg, cmd.ErrOrStderr())
	logger.Debug("configuration loaded (env=%s)", cfg.Environment)
	return cfg, nil
}
