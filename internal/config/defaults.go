package config

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"java_cmd":             "",
		"cli_jar":              "",
		"workspace_dir":        "~/.cctest",
		"state_dir":            "~/.cctest/state",
		"default_timeout":      120,
		"grace_period":         5,
		"max_parallel":         4,
		"max_history":          500,
		"show_progress":        true,
		"trailing_blank_lines": 10,

		"notifications.enabled":                false,
		"notifications.type":                   "both",
		"notifications.sound_file":             "",
		"notifications.on_failure_only":        false,
		"notifications.long_running_threshold": 0,
	}
}
