package shared

import (
	"errors"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cctools/cctest/internal/config"
	apperrors "github.com/cctools/cctest/internal/errors"
	"github.com/cctools/cctest/internal/progress"
)

// LoadConfig loads configuration honoring the global --config flag. An
// explicit --config path must exist.
func LoadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	path, _ := cmd.Flags().GetString("config")
	if cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); err != nil {
			return nil, apperrors.ConfigFileNotFound(path)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) && verr.FilePath != "" {
			path = verr.FilePath
		}
		if path == "" {
			path = config.LocalConfigPath
		}
		return nil, apperrors.ConfigParseError(path, err)
	}
	return cfg, nil
}

// DisplayOptions adjust the progress display for one command.
type DisplayOptions struct {
	// Plain disables the spinner, for concurrent runs sharing one stream.
	Plain bool
}

// NewDisplay builds the progress display on the command's stderr from the
// global --debug and --no-color flags and the show_progress setting.
func NewDisplay(cmd *cobra.Command, cfg *config.Configuration, opts DisplayOptions) *progress.Display {
	out := cmd.ErrOrStderr()

	var caps progress.TerminalCapabilities
	if f, ok := out.(*os.File); ok {
		caps = progress.DetectTerminalCapabilities(f)
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		caps.SupportsColor = false
	}
	if opts.Plain || (cfg != nil && !cfg.ShowProgress) {
		caps.IsTTY = false
	}

	d := progress.NewDisplay(out, caps)
	debug, _ := cmd.Flags().GetBool("debug")
	d.SetDebug(debug)
	return d
}

// ApplyColorFlag turns off colored output globally when --no-color is set.
func ApplyColorFlag(cmd *cobra.Command) {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}
}

// AddGroups defines the help groups commands are filed under.
func AddGroups(rootCmd *cobra.Command) {
	rootCmd.AddGroup(&cobra.Group{ID: GroupGettingStarted, Title: "Getting Started:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupTesting, Title: "Testing:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"})
}

// AddGlobalFlags registers the persistent flags every command reads.
func AddGlobalFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to project config file (default .cctest/config.json)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
}
