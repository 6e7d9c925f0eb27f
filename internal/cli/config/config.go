package config

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cctools/cctest/internal/cli/shared"
	cfgpkg "github.com/cctools/cctest/internal/config"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect cctest configuration",
		Long: `Inspect cctest configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (CCTEST_*)
  2. Project config (.cctest/config.json, or the --config path)
  3. User config (~/.cctest/config.json)
  4. Built-in defaults`,
		Example: `  # Show current configuration
  cctest config show

  # Show configuration as JSON
  cctest config show --json`,
	}
	configCmd.GroupID = shared.GroupConfiguration

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current effective configuration",
		Long: `Display the current effective configuration values.

Shows the merged result of defaults, user config, project config, and
environment variables.`,
		Example: `  cctest config show
  cctest config show --json`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runConfigShow,
	}
	configShowCmd.Flags().Bool("json", false, "Output as JSON")

	configCmd.AddCommand(configShowCmd)
	return configCmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	useJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := shared.LoadConfig(cmd)
	if err != nil {
		return err
	}

	configMap := map[string]interface{}{
		"java_cmd":             cfg.JavaCmd,
		"cli_jar":              cfg.CLIJar,
		"workspace_dir":        cfg.WorkspaceDir,
		"state_dir":            cfg.StateDir,
		"default_timeout":      cfg.DefaultTimeout,
		"grace_period":         cfg.GracePeriod,
		"max_parallel":         cfg.MaxParallel,
		"max_history":          cfg.MaxHistory,
		"show_progress":        cfg.ShowProgress,
		"trailing_blank_lines": cfg.TrailingBlankLines,
		"notifications":        cfg.Notifications,
	}

	projectPath, _ := cmd.Flags().GetString("config")
	if projectPath == "" {
		projectPath = cfgpkg.LocalConfigPath
	}
	userPath, _ := cfgpkg.GlobalConfigPath()

	if useJSON {
		data, err := json.MarshalIndent(configMap, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize config: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "# Configuration Sources\n")
	fmt.Fprintf(out, "# User config:    %s\n", userPath)
	fmt.Fprintf(out, "# Project config: %s\n", projectPath)
	fmt.Fprintf(out, "\n")

	data, err := yaml.Marshal(configMap)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}
