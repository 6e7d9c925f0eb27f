package errors

import (
	"fmt"
	"strings"
)

// MissingFixturePath reports a run without fixture arguments.
func MissingFixturePath() *CLIError {
	return NewArgumentErrorWithUsage(
		"no fixture file given",
		"cctest run <fixture.yaml>...",
		"Pass one or more fixture files",
		"Create a template with: cctest init",
	)
}

// FixtureNotFound reports a fixture path that does not exist.
func FixtureNotFound(path string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("fixture file not found: %s", path),
		"Check the path and try again",
	)
}

// InvalidFixture wraps a validation or compile failure of one fixture.
func InvalidFixture(path string, err error) *CLIError {
	return &CLIError{
		Category:    Argument,
		Message:     fmt.Sprintf("invalid fixture %s: %v", path, err),
		Remediation: []string{"Fix the reported fields; no form was started"},
		Err:         err,
	}
}

// JavaNotFound reports a missing Java runtime.
func JavaNotFound(minVersion int) *CLIError {
	return NewPrerequisiteError(
		"java executable not found",
		fmt.Sprintf("Install Java %d or newer", minVersion),
		"Set JAVA_HOME, add java to PATH, or set java_cmd in the config",
	)
}

// CLIJarNotConfigured reports that no engine jar is configured.
func CLIJarNotConfigured() *CLIError {
	return NewPrerequisiteError(
		"commcare-cli jar is not configured",
		"Set cli_jar in ~/.cctest/config.json or .cctest/config.json",
		"Or export CCTEST_CLI_JAR=/path/to/commcare-cli.jar",
	)
}

// ArtifactMissing reports an application or restore that is neither given
// nor cached.
func ArtifactMissing(kind, path, hint string, err error) *CLIError {
	return &CLIError{
		Category:    Prerequisite,
		Message:     fmt.Sprintf("%s not found at %s", kind, path),
		Remediation: []string{hint},
		Err:         err,
	}
}

// ConfigFileNotFound reports an explicit --config path that does not exist.
func ConfigFileNotFound(path string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("config file not found: %s", path),
		"Check the --config path",
	)
}

// ConfigParseError reports an unreadable or invalid config file.
func ConfigParseError(path string, err error) *CLIError {
	return &CLIError{
		Category: Configuration,
		Message:  fmt.Sprintf("failed to load config %s: %v", path, err),
		Remediation: []string{
			"Check the file is valid JSON",
			"Remove the file to fall back to defaults",
		},
		Err: err,
	}
}

// InvalidFlagCombination reports flags that cannot be used together.
func InvalidFlagCombination(flags, reason string) *CLIError {
	return NewArgumentError(fmt.Sprintf("invalid flag combination %s: %s", flags, reason))
}

// InvalidFlagValue reports a flag value outside its allowed set.
func InvalidFlagValue(flag, value string, allowed ...string) *CLIError {
	err := NewArgumentError(fmt.Sprintf("invalid value %q for %s", value, flag))
	if len(allowed) > 0 {
		err.Remediation = []string{"Use one of: " + strings.Join(allowed, ", ")}
	}
	return err
}

// TimeoutError reports a run that exceeded its time limit.
func TimeoutError(duration, what string) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("%s timed out after %s", what, duration),
		"Raise timeout in the fixture or pass --timeout",
		"Run with --show-output to see where the engine stopped",
	)
}

// DirectoryNotFound reports a required directory that does not exist.
func DirectoryNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("directory not found: %s", path),
		"Create the directory or fix the path",
	)
}

// FileNotWritable reports an output file that cannot be written.
func FileNotWritable(path string, err error) *CLIError {
	return &CLIError{
		Category:    Runtime,
		Message:     fmt.Sprintf("cannot write %s: %v", path, err),
		Remediation: []string{"Check permissions of the target directory"},
		Err:         err,
	}
}

// FileExists reports a file that would be overwritten.
func FileExists(path string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("file already exists: %s", path),
		"Choose another --output path or pass --force",
	)
}
