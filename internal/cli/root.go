// Package cli provides the Cobra-based command surface of cctest. It
// defines the fixture commands (run, validate, init), configuration and
// environment commands (config, doctor, cache), and utilities (history,
// version).
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cctools/cctest/internal/cli/config"
	"github.com/cctools/cctest/internal/cli/fixtures"
	"github.com/cctools/cctest/internal/cli/shared"
	"github.com/cctools/cctest/internal/cli/util"
	apperrors "github.com/cctools/cctest/internal/errors"
)

// Command group IDs for organizing help output (re-exported from shared)
const (
	GroupGettingStarted = shared.GroupGettingStarted
	GroupTesting        = shared.GroupTesting
	GroupConfiguration  = shared.GroupConfiguration
)

// NewRootCmd builds the cctest command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cctest",
		Short: "Declarative end-to-end tests for CommCare forms",
		Long: `cctest - declarative end-to-end tests for CommCare forms

Describe a form submission in a YAML fixture: the menu path to the form and
the answers to give. cctest compiles the fixture into a replay script,
plays it through the commcare-cli engine, and reports pass, fail or error.`,
		Example: `  # Start a new fixture
  cctest init --output tests/intake.yaml

  # Check it without starting the engine
  cctest validate tests/intake.yaml

  # Run it and keep the submitted form
  cctest run tests/intake.yaml --output-xml out/intake.xml

  # Check that java and the engine jar are set up
  cctest doctor`,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			shared.ApplyColorFlag(cmd)
		},
	}

	shared.AddGroups(rootCmd)
	rootCmd.SetHelpCommandGroupID(GroupConfiguration)
	rootCmd.SetCompletionCommandGroupID(GroupConfiguration)

	shared.AddGlobalFlags(rootCmd)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return apperrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine())
	})

	fixtures.Register(rootCmd)
	config.Register(rootCmd)
	util.Register(rootCmd)
	return rootCmd
}

// Execute runs the root command. Interrupts cancel the running fixtures,
// whose engines are stopped before Execute returns.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil && !shared.IsSilent(err) {
		if cliErr := apperrors.AsCLIError(err); cliErr != nil {
			apperrors.PrintError(cliErr)
		} else {
			apperrors.PrintError(apperrors.Wrap(err, apperrors.Runtime))
		}
	}
	return err
}
