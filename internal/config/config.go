// Package config loads cctest settings from defaults, the global and local
// JSON config files, and CCTEST_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/cctools/cctest/internal/notify"
)

const (
	// EnvPrefix prefixes every environment override, e.g. CCTEST_CLI_JAR.
	EnvPrefix = "CCTEST_"
	// LocalConfigPath is the project config read when --config is not given.
	LocalConfigPath = ".cctest/config.json"
)

// Configuration represents the cctest settings
type Configuration struct {
	// JavaCmd is the java executable; empty means JAVA_HOME, then PATH.
	JavaCmd string `koanf:"java_cmd" json:"java_cmd"`
	// CLIJar is the commcare-cli jar that plays forms.
	CLIJar             string `koanf:"cli_jar" json:"cli_jar"`
	WorkspaceDir       string `koanf:"workspace_dir" json:"workspace_dir" validate:"required"`
	StateDir           string `koanf:"state_dir" json:"state_dir" validate:"required"`
	DefaultTimeout     int    `koanf:"default_timeout" json:"default_timeout" validate:"min=1,max=86400"`
	GracePeriod        int    `koanf:"grace_period" json:"grace_period" validate:"min=0,max=600"`
	MaxParallel        int    `koanf:"max_parallel" json:"max_parallel" validate:"min=1,max=64"`
	MaxHistory         int    `koanf:"max_history" json:"max_history" validate:"min=0"`
	ShowProgress       bool   `koanf:"show_progress" json:"show_progress"`
	TrailingBlankLines int    `koanf:"trailing_blank_lines" json:"trailing_blank_lines" validate:"min=0,max=100"`
	// Notifications announce finished runs on the desktop.
	Notifications notify.Config `koanf:"notifications" json:"notifications"`
}

// Timeout returns DefaultTimeout as a duration.
func (c *Configuration) Timeout() time.Duration {
	return time.Duration(c.DefaultTimeout) * time.Second
}

// Grace returns GracePeriod as a duration.
func (c *Configuration) Grace() time.Duration {
	return time.Duration(c.GracePeriod) * time.Second
}

// Load loads configuration from global, local, and environment sources.
// Priority: environment > local file > global file > defaults.
// An empty localConfigPath means LocalConfigPath.
func Load(localConfigPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if globalPath, err := GlobalConfigPath(); err == nil {
		if err := loadFile(k, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if localConfigPath == "" {
		localConfigPath = LocalConfigPath
	}
	if err := loadFile(k, localConfigPath); err != nil {
		return nil, fmt.Errorf("loading local config: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, localConfigPath); err != nil {
		return nil, err
	}

	cfg.WorkspaceDir = expandHomePath(cfg.WorkspaceDir)
	cfg.StateDir = expandHomePath(cfg.StateDir)
	cfg.CLIJar = expandHomePath(cfg.CLIJar)
	cfg.Notifications.SoundFile = expandHomePath(cfg.Notifications.SoundFile)
	return &cfg, nil
}

// GlobalConfigPath returns ~/.cctest/config.json.
func GlobalConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".cctest", "config.json"), nil
}

// loadFile merges path into k when it exists. Syntax errors are reported
// with their position.
func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := ValidateJSONSyntax(path); err != nil {
		return err
	}
	return k.Load(file.Provider(path), json.Parser())
}

// envTransform converts environment variable names to config keys. A
// NOTIFICATIONS_ prefix selects the nested notifications block.
// Example: CCTEST_MAX_PARALLEL -> max_parallel,
// CCTEST_NOTIFICATIONS_ENABLED -> notifications.enabled
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "notifications_"); ok {
		return "notifications." + rest
	}
	return key
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
