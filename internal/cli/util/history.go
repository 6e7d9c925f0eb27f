package util

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/cctools/cctest/internal/cli/shared"
	apperrors "github.com/cctools/cctest/internal/errors"
	"github.com/cctools/cctest/internal/history"
)

var validStatuses = []string{
	history.StatusRunning,
	history.StatusPass,
	history.StatusFail,
	history.StatusError,
	history.StatusCancelled,
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "View past fixture runs",
		Long: `View a log of fixture runs with their ID, verdict, fixture, exit code and duration.

Entries are listed newest first.`,
		Example: `  # Last 20 runs
  cctest history -n 20

  # Only failures of one fixture
  cctest history --status fail --fixture intake-basic

  # Forget everything
  cctest history --clear`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig(cmd)
			if err != nil {
				return err
			}
			return runHistoryWithStateDir(cmd, cfg.StateDir)
		},
	}
	cmd.GroupID = shared.GroupConfiguration
	cmd.Flags().StringP("fixture", "x", "", "Filter by fixture name")
	cmd.Flags().IntP("limit", "n", 0, "Limit to the N most recent entries")
	cmd.Flags().Bool("clear", false, "Clear all history")
	cmd.Flags().String("status", "", "Filter by status (running, pass, fail, error, cancelled)")
	return cmd
}

// runHistoryWithStateDir runs the history command against stateDir.
func runHistoryWithStateDir(cmd *cobra.Command, stateDir string) error {
	clearFlag, _ := cmd.Flags().GetBool("clear")
	fixtureFilter, _ := cmd.Flags().GetString("fixture")
	statusFilter, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	if limit < 0 {
		return apperrors.InvalidFlagValue("--limit", fmt.Sprint(limit), "a positive number")
	}
	if statusFilter != "" && !slices.Contains(validStatuses, statusFilter) {
		return apperrors.InvalidFlagValue("--status", statusFilter, validStatuses...)
	}

	if clearFlag {
		if err := history.Clear(stateDir); err != nil {
			return apperrors.FileNotWritable(stateDir, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return nil
	}

	histFile, err := history.Load(stateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	entries := filterEntries(histFile.Recent(0), fixtureFilter, statusFilter, limit)
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), buildEmptyMessage(fixtureFilter, statusFilter))
		return nil
	}

	displayEntries(cmd, entries)
	return nil
}

// buildEmptyMessage creates an appropriate message when no entries match filters.
func buildEmptyMessage(fixtureFilter, statusFilter string) string {
	if fixtureFilter != "" && statusFilter != "" {
		return fmt.Sprintf("No matching entries for fixture '%s' and status '%s'.", fixtureFilter, statusFilter)
	}
	if fixtureFilter != "" {
		return fmt.Sprintf("No matching entries for fixture '%s'.", fixtureFilter)
	}
	if statusFilter != "" {
		return fmt.Sprintf("No matching entries for status '%s'.", statusFilter)
	}
	return "No history available."
}

// filterEntries filters newest-first entries and keeps at most limit.
func filterEntries(entries []history.Entry, fixtureFilter, statusFilter string, limit int) []history.Entry {
	var result []history.Entry
	for _, entry := range entries {
		if fixtureFilter != "" && entry.Fixture != fixtureFilter {
			continue
		}
		if statusFilter != "" && entry.Status != statusFilter {
			continue
		}
		result = append(result, entry)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// displayEntries formats and displays history entries.
func displayEntries(cmd *cobra.Command, entries []history.Entry) {
	out := cmd.OutOrStdout()
	c := shared.NewColors()

	for _, entry := range entries {
		timestamp := entry.CreatedAt.Local().Format("2006-01-02 15:04:05")

		exitCodeStr := fmt.Sprintf("%d", entry.ExitCode)
		if entry.ExitCode == 0 {
			exitCodeStr = c.Green(exitCodeStr)
		} else {
			exitCodeStr = c.Red(exitCodeStr)
		}

		duration := entry.Duration
		if duration == "" {
			duration = "-"
		}

		fmt.Fprintf(out, "%s  %-30s  %s  %-24s  exit=%s  %s\n",
			c.Cyan(timestamp),
			formatID(entry.ID),
			formatStatus(c, entry.Status),
			entry.Fixture,
			exitCodeStr,
			duration,
		)
		if entry.Reason != "" && entry.Status != history.StatusPass {
			fmt.Fprintf(out, "    %s\n", c.Dim(entry.Reason))
		}
	}
}

// formatStatus returns a color-coded, padded status string.
func formatStatus(c *shared.Colors, status string) string {
	padded := fmt.Sprintf("%-9s", status)
	switch status {
	case history.StatusPass:
		return c.Green(padded)
	case history.StatusRunning:
		return c.Yellow(padded)
	case history.StatusFail, history.StatusError, history.StatusCancelled:
		return c.Red(padded)
	default:
		return fmt.Sprintf("%-9s", "-")
	}
}

// formatID pads IDs to a fixed width; IDs are adjective_noun_YYYYMMDD_HHMMSS.
func formatID(id string) string {
	if id == "" {
		return fmt.Sprintf("%-30s", "-")
	}
	if len(id) > 30 {
		return id[:30]
	}
	return fmt.Sprintf("%-30s", id)
}
