package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cctools/cctest/internal/cli/shared"
	"github.com/cctools/cctest/internal/health"
)

// checker runs the doctor checks; tests replace its Java lookups.
var checker = &health.Checker{}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"doc"},
		Short:   "Run health checks for the engine's prerequisites (doc)",
		Long: `Run health checks to verify that fixtures can be run on this machine.

This command checks for:
  - Java (version 17 or newer, from java_cmd, JAVA_HOME or PATH)
  - The commcare-cli jar configured as cli_jar
  - Writable workspace and state directories

Each check will display a checkmark if passed or an X with an error message if failed.`,
		Example: `  # Check all prerequisites
  cctest doctor

  # Run before the first fixture
  cctest doctor && cctest run tests/intake.yaml`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig(cmd)
			if err != nil {
				return err
			}

			report := checker.Run(cmd.Context(), cfg)
			fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))

			if !report.Passed {
				return shared.NewExitError(shared.ExitMissingDependency)
			}
			return nil
		},
	}
	cmd.GroupID = shared.GroupConfiguration
	return cmd
}
