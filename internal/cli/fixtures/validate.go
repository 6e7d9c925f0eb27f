package fixtures

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cctools/cctest/internal/cli/shared"
	apperrors "github.com/cctools/cctest/internal/errors"
	"github.com/cctools/cctest/internal/replay"
)

func newValidateCmd() *cobra.Command {
	var quiet bool
	var trailing int

	cmd := &cobra.Command{
		Use:   "validate <fixture.yaml>...",
		Short: "Check fixtures and print their engine input",
		Long: `Validate and compile fixtures without starting the engine.

Every problem in a fixture is reported at once. For valid fixtures the
compiled engine input is printed, exactly as run would send it.`,
		Example: `  # Check every fixture in a directory
  cctest validate tests/*.yaml

  # Only report problems
  cctest validate -q tests/intake.yaml`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return apperrors.NewArgumentErrorWithUsage("no fixture file given", "cctest validate <fixture.yaml>...")
			}
			if trailing < 0 {
				return apperrors.InvalidFlagValue("--trailing-blank-lines", fmt.Sprint(trailing), "zero or more")
			}

			out := cmd.OutOrStdout()
			c := shared.NewColors()
			encoder := &replay.CommCareEncoder{TrailingBlankLines: trailing}
			failed := 0

			for _, path := range args {
				f, cliErr := loadFixture(path)
				if cliErr != nil {
					apperrors.FprintError(cmd.ErrOrStderr(), cliErr)
					failed++
					continue
				}
				script, err := replay.Compile(f)
				if err != nil {
					apperrors.FprintError(cmd.ErrOrStderr(), apperrors.InvalidFixture(path, err))
					failed++
					continue
				}

				nav := script.NavigationCount()
				fmt.Fprintf(out, "%s %s: %s (navigation %d, answers %d)\n", c.Green("✓"), path, f.Name, nav, script.Len()-nav)
				for _, w := range f.Warnings {
					fmt.Fprintf(out, "  %s %s\n", c.Yellow("warning:"), w.Error())
				}
				if !quiet {
					fmt.Fprint(out, replay.Render(encoder.Encode(script)))
				}
			}

			if failed > 0 {
				return shared.NewExitError(shared.ExitInvalid)
			}
			return nil
		},
	}
	cmd.GroupID = shared.GroupTesting
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the compiled engine input")
	cmd.Flags().IntVar(&trailing, "trailing-blank-lines", replay.DefaultTrailingBlankLines, "Blank lines appended after the replay")
	return cmd
}
