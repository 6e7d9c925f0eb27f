package fixtures

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cctools/cctest/internal/cli/shared"
	apperrors "github.com/cctools/cctest/internal/errors"
	"github.com/cctools/cctest/internal/fixture"
)

// DefaultFixturePath is where init writes the template.
const DefaultFixturePath = "fixture.yaml"

func newInitCmd() *cobra.Command {
	var output string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a fixture template",
		Long: `Write a commented fixture template to start a new test from.

An existing file is never overwritten unless --force is given.`,
		Example: `  cctest init
  cctest init --output tests/intake.yaml`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(output); err == nil && !force {
				return apperrors.FileExists(output)
			}
			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return apperrors.FileNotWritable(output, err)
				}
			}
			if err := os.WriteFile(output, []byte(fixture.Skeleton()), 0o644); err != nil {
				return apperrors.FileNotWritable(output, err)
			}

			c := shared.NewColors()
			fmt.Fprintf(cmd.OutOrStdout(), "%s Created fixture template: %s\n", c.Green("✓"), output)
			fmt.Fprintf(cmd.OutOrStdout(), "  Fill in the connection and answers, then run: cctest validate %s\n", output)
			return nil
		},
	}
	cmd.GroupID = shared.GroupGettingStarted
	cmd.Flags().StringVarP(&output, "output", "o", DefaultFixturePath, "Path of the fixture to create")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
