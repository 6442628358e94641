package cli

import (
	"fmt"

	"workflow_server/internal/bootstrap"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Resolve the configuration and print the mode report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			deps, cleanup, err := bootstrap.NewDependencies(contextOrBackground(cmd), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			report := struct {
				Health       any      `json:"health"`
				ForcedMock   bool     `json:"forced_mock"`
				MockReasons  []string `json:"mock_reasons,omitempty"`
				StageTimeout string   `json:"stage_timeout"`
			}{
				Health:       deps.Pipeline.Health(),
				ForcedMock:   deps.Decision.Forced,
				MockReasons:  deps.Decision.Reasons,
				StageTimeout: cfg.StageTimeout.String(),
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
