package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"workflow_server/internal/bootstrap"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var errNotProcessed = errors.New("email was not processed")

func newProcessCommand() *cobra.Command {
	var (
		file   string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run the pipeline once on an email read from a file or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			text, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			ctx := contextOrBackground(cmd)
			deps, cleanup, err := bootstrap.NewDependencies(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			env := deps.Pipeline.Process(ctx, text)

			var out []byte
			if pretty {
				out, err = json.MarshalIndent(env, "", "  ")
			} else {
				out, err = json.Marshal(env)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if !env.Success {
				return errNotProcessed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", `email file to read ("-" for stdin)`)
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

func readInput(stdin io.Reader, file string) (string, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}
	return string(data), nil
}
