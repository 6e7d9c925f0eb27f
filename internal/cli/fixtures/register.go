// Package fixtures provides the CLI commands that work on fixture files.
// Includes: run, validate, init
package fixtures

import (
	"github.com/spf13/cobra"
)

// Register adds the fixture commands to the root command.
// This function is called from the root CLI package during initialization.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newInitCmd())
}
